// Package recbox 是一个推荐引擎库：基于行为共现的协同过滤与基于
// 属性相似的内容推荐两路独立信号，经协调器等权混合后产出排序列表。
//
// 分层：
//   - core：领域模型、Engine 抽象、外部集合契约
//   - pkg/similarity：余弦 / 皮尔逊相似度
//   - engine：协同引擎与内容引擎（每次训练全量重建）
//   - service：协调器（训练、扇出查询、合并、结果组装）
//   - pipeline / filter / rerank：合并后的可组合处理链路
//   - store：内存 / Redis 集合实现
//   - config：YAML/JSON 配置与装配
//
// 使用方式见各包文档；库本身不含进程入口。
package recbox
