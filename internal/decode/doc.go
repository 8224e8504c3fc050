/*
Package decode 实现 PPT 调制器 86 字节遥测帧的解码核心。

设备每个遥测周期通过 TCP 推送一帧定长 86 字节的二进制数据，
帧内全部测量值均为 16 位小端无符号字 (低字节在前)。本包维护
字段偏移表 (profile)，并把一帧字节解码为 字段名 -> 物理量 的映射。

本包不做任何 IO、不打日志、不保留输入切片，Decode 是纯函数，
可以在任意协程上并发调用。帧的组包、投递与下游发布由
connector / parser / sink 各包负责。
*/
package decode
