/*
Package sink 定义了解码后数据的输出目标。

本包接收来自 dispatcher 的 PointPackage，并根据配置把测量值
发送到一个或多个目的地：

- mqtt: 按 主题/设备/profile 发布 JSON

- kafka: 按设备名为 key 写入主题

- influxdb: profile 为 measurement，设备名为 tag 写入

- prometheus: 以 GaugeVec 形式暴露最近一次测量值

- console: 结构化日志输出，用于调试与联调

使用示例：

	// 初始化函数，注册自定义 sink
	func init() {
		Register("mysink", NewMySink)
	}
*/
package sink
