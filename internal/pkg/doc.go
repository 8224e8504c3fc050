/*
Package pkg 存放网关各模块共享的基础设施。

本包包含：

- Config: 全局配置结构，由 viper 从 yaml 目录合并加载。

- Logger: 基于 zap + lumberjack 的结构化日志。

- context 辅助函数: 将配置、日志、错误通道挂载到 context 上，
模块间只传递 context，不传递裸指针。

- RawFrame / Point / PointPackage: 连接器、解析器、分发器与
下游 Sink 之间传递的数据结构。

- FrameReader: 从 io.Reader 中按固定长度切出完整遥测帧。

- PerformanceMetrics: 进程内性能计数。
*/
package pkg
