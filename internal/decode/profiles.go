package decode

import (
	"fmt"
	"sort"
)

// profile 注册表。表在 init 期一次性建好，运行期只读，
// 因此多协程并发 Decode 无需加锁
var profiles = map[string][]FieldSpec{}

// Fields 返回指定 profile 的字段表，表序即解码序。
// 返回的切片为注册表内部存储，调用方不得修改
func Fields(profileID string) ([]FieldSpec, error) {
	fields, ok := profiles[profileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, profileID)
	}
	return fields, nil
}

// Profiles 返回全部已注册 profile 的 ID，字典序
func Profiles() []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// mustRegister 注册一个 profile，表非法时 panic。
// 字段表是编译期数据，表错了属于程序缺陷，不能带病启动
func mustRegister(profileID string, fields []FieldSpec) {
	if _, exists := profiles[profileID]; exists {
		panic(fmt.Sprintf("decode: profile %s 重复注册", profileID))
	}
	words := make(map[int]string, len(fields))
	for _, f := range fields {
		if f.Offset < 0 || f.Offset+1 >= FrameSize {
			panic(fmt.Sprintf("decode: profile %s 字段 %s 偏移 %d 越界", profileID, f.Name, f.Offset))
		}
		// 同一 profile 内任意两个字段不得共用字节
		for off := f.Offset; off <= f.Offset+1; off++ {
			if owner, taken := words[off]; taken {
				panic(fmt.Sprintf("decode: profile %s 字段 %s 与 %s 在偏移 %d 重叠", profileID, f.Name, owner, off))
			}
			words[off] = f.Name
		}
	}
	profiles[profileID] = fields
}

// 设备手册给出了同一 86 字节帧的三套分组方式：整机 22 字段表、
// 按子系统拆分的 11+11 表、以及按闸流管/速调管分段的 15+15 表。
// 生产上没有哪一套被指定为权威，这里各自独立注册，互不拼接。
const (
	ProfileModulator22 = "modulator22"
	ProfileHeater11    = "heater11"
	ProfileHV11        = "hv11"
	ProfileThyratron15 = "thyratron15"
	ProfileKlystron15  = "klystron15"
)

func init() {
	// 整机表，字序与设备遥测文档一致 (WORD0..WORD42 的偶数字)
	mustRegister(ProfileModulator22, []FieldSpec{
		{Name: "HeaterVoltage1", Offset: 0, Scale: ScaleDiv10, Unit: "V"},
		{Name: "ReservoirVoltage", Offset: 4, Scale: ScaleDiv10, Unit: "V"},
		{Name: "TotalCurrent", Offset: 8, Scale: ScaleDiv100, Unit: "A"},
		{Name: "TimerPreheatMin", Offset: 12, Scale: ScaleRaw, Unit: "count"},
		{Name: "TimerPreheatSec", Offset: 16, Scale: ScaleRaw, Unit: "count"},
		{Name: "InterlockMsg1", Offset: 20, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "StatusMsg1", Offset: 24, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "HeaterVoltage2", Offset: 28, Scale: ScaleDiv10, Unit: "V"},
		{Name: "HeaterCurrent", Offset: 32, Scale: ScaleDiv100, Unit: "A"},
		{Name: "BodyWaterInTemp", Offset: 36, Scale: ScaleDiv10, Unit: "°C"},
		{Name: "BodyWaterOutTemp", Offset: 40, Scale: ScaleDiv10, Unit: "°C"},
		{Name: "BodyWaterFlow", Offset: 44, Scale: ScaleDiv100, Unit: "L/min"},
		{Name: "TimerPreheat100Min", Offset: 48, Scale: ScaleRaw, Unit: "count"},
		{Name: "TimerPreheat100Sec", Offset: 52, Scale: ScaleRaw, Unit: "count"},
		{Name: "InterlockMsg2", Offset: 56, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "StatusMsg2", Offset: 60, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "KlystronVoltage", Offset: 64, Scale: ScaleDiv10, Unit: "V"},
		{Name: "KlystronCurrent", Offset: 68, Scale: ScaleDiv100, Unit: "A"},
		{Name: "MagnetVoltageCoil1", Offset: 72, Scale: ScaleDiv10, Unit: "V"},
		{Name: "MagnetCurrentCoil1", Offset: 76, Scale: ScaleDiv100, Unit: "A"},
		{Name: "MagnetVoltageCoil2", Offset: 80, Scale: ScaleDiv10, Unit: "V"},
		{Name: "MagnetCurrentCoil2", Offset: 84, Scale: ScaleDiv100, Unit: "A"},
	})

	// 灯丝/预热/机体冷却子系统，整机表的前半
	mustRegister(ProfileHeater11, []FieldSpec{
		{Name: "HeaterVoltage1", Offset: 0, Scale: ScaleDiv10, Unit: "V"},
		{Name: "ReservoirVoltage", Offset: 4, Scale: ScaleDiv10, Unit: "V"},
		{Name: "TotalCurrent", Offset: 8, Scale: ScaleDiv100, Unit: "A"},
		{Name: "TimerPreheatMin", Offset: 12, Scale: ScaleRaw, Unit: "count"},
		{Name: "TimerPreheatSec", Offset: 16, Scale: ScaleRaw, Unit: "count"},
		{Name: "InterlockMsg1", Offset: 20, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "StatusMsg1", Offset: 24, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "HeaterVoltage2", Offset: 28, Scale: ScaleDiv10, Unit: "V"},
		{Name: "HeaterCurrent", Offset: 32, Scale: ScaleDiv100, Unit: "A"},
		{Name: "BodyWaterInTemp", Offset: 36, Scale: ScaleDiv10, Unit: "°C"},
		{Name: "BodyWaterOutTemp", Offset: 40, Scale: ScaleDiv10, Unit: "°C"},
	})

	// 高压/磁体子系统，整机表的后半
	mustRegister(ProfileHV11, []FieldSpec{
		{Name: "BodyWaterFlow", Offset: 44, Scale: ScaleDiv100, Unit: "L/min"},
		{Name: "TimerPreheat100Min", Offset: 48, Scale: ScaleRaw, Unit: "count"},
		{Name: "TimerPreheat100Sec", Offset: 52, Scale: ScaleRaw, Unit: "count"},
		{Name: "InterlockMsg2", Offset: 56, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "StatusMsg2", Offset: 60, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "KlystronVoltage", Offset: 64, Scale: ScaleDiv10, Unit: "V"},
		{Name: "KlystronCurrent", Offset: 68, Scale: ScaleDiv100, Unit: "A"},
		{Name: "MagnetVoltageCoil1", Offset: 72, Scale: ScaleDiv10, Unit: "V"},
		{Name: "MagnetCurrentCoil1", Offset: 76, Scale: ScaleDiv100, Unit: "A"},
		{Name: "MagnetVoltageCoil2", Offset: 80, Scale: ScaleDiv10, Unit: "V"},
		{Name: "MagnetCurrentCoil2", Offset: 84, Scale: ScaleDiv100, Unit: "A"},
	})

	// 闸流管/充电段视图，带功率 (kW) 和高压充电 (kV) 字段
	mustRegister(ProfileThyratron15, []FieldSpec{
		{Name: "ThyHeaterVoltage", Offset: 0, Scale: ScaleDiv10, Unit: "V"},
		{Name: "ThyReservoirVoltage", Offset: 4, Scale: ScaleDiv10, Unit: "V"},
		{Name: "ThyHeaterCurrent", Offset: 8, Scale: ScaleDiv100, Unit: "A"},
		{Name: "ThyReservoirCurrent", Offset: 12, Scale: ScaleDiv100, Unit: "A"},
		{Name: "HVChargingVoltage", Offset: 16, Scale: ScaleDiv10, Unit: "kV"},
		{Name: "HVChargingCurrent", Offset: 20, Scale: ScaleDiv100, Unit: "A"},
		{Name: "PFNVoltage", Offset: 24, Scale: ScaleDiv10, Unit: "kV"},
		{Name: "OutputPower", Offset: 28, Scale: ScaleDiv10, Unit: "kW"},
		{Name: "TimerThyPreheatMin", Offset: 32, Scale: ScaleRaw, Unit: "count"},
		{Name: "TimerThyPreheatSec", Offset: 36, Scale: ScaleRaw, Unit: "count"},
		{Name: "CabinetAirTemp", Offset: 40, Scale: ScaleDiv10, Unit: "°C"},
		{Name: "CabinetWaterFlow", Offset: 44, Scale: ScaleDiv100, Unit: "L/min"},
		{Name: "InterlockMsgThy", Offset: 48, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "StatusMsgThy", Offset: 52, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "PulseRepCount", Offset: 56, Scale: ScaleRaw, Unit: "count"},
	})

	// 速调管/磁体段视图，带集电极功率 (kW) 和束压 (kV) 字段
	mustRegister(ProfileKlystron15, []FieldSpec{
		{Name: "KlyHeaterVoltage", Offset: 28, Scale: ScaleDiv10, Unit: "V"},
		{Name: "KlyHeaterCurrent", Offset: 32, Scale: ScaleDiv100, Unit: "A"},
		{Name: "KlyBodyWaterInTemp", Offset: 36, Scale: ScaleDiv10, Unit: "°C"},
		{Name: "KlyBodyWaterOutTemp", Offset: 40, Scale: ScaleDiv10, Unit: "°C"},
		{Name: "KlyBodyWaterFlow", Offset: 44, Scale: ScaleDiv100, Unit: "L/min"},
		{Name: "BeamVoltage", Offset: 48, Scale: ScaleDiv10, Unit: "kV"},
		{Name: "BeamCurrent", Offset: 52, Scale: ScaleDiv100, Unit: "A"},
		{Name: "CollectorPower", Offset: 56, Scale: ScaleDiv10, Unit: "kW"},
		{Name: "InterlockMsgKly", Offset: 60, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "StatusMsgKly", Offset: 64, Scale: ScaleRaw, Unit: "bitfield"},
		{Name: "MagnetSupplyVoltage", Offset: 68, Scale: ScaleDiv10, Unit: "V"},
		{Name: "KlyMagnetCurrentCoil1", Offset: 72, Scale: ScaleDiv100, Unit: "A"},
		{Name: "KlyMagnetCurrentCoil2", Offset: 76, Scale: ScaleDiv100, Unit: "A"},
		{Name: "KlyMagnetVoltage", Offset: 80, Scale: ScaleDiv10, Unit: "V"},
		{Name: "KlyFocusCurrent", Offset: 84, Scale: ScaleDiv100, Unit: "A"},
	})
}
