/*
Package parser 把 Connector 送来的原始遥测帧转换为命名数据点。

每个到达的帧按配置启用的每个 decode profile 各解码一次，
一个 profile 产出一个 Point，同一帧的全部 Point 打包为一个
PointPackage 发给 Dispatcher。解码失败的帧整帧丢弃并计数，
绝不发出残缺的 Point。

配置中可以声明派生字段 (expr 表达式)，在各 profile 解码值的
并集上求值，例如 HeaterPower: "Fields.HeaterVoltage2 * Fields.HeaterCurrent"。
*/
package parser
