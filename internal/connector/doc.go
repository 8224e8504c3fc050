/*
Package connector 负责从调制器设备获取原始遥测帧。

每个连接器实现 Connector 接口，从某种传输层 (tcp 客户端 / tcp
服务端 / udp) 收取定长 86 字节帧，打上设备名和时间戳后写入帧
通道。组帧只做定长切割，字节内容不做任何解释，解码完全由
parser/decode 负责。

通过 init 注册到工厂表，New 按配置选择启用的连接器类型。
*/
package connector
