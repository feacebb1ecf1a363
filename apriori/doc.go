// Package apriori 实现基于关联规则的题材推荐。
//
// 数据单向流动：
//
//	借阅记录 → Preprocess → Mine（频繁项集）→ GenerateRules → Recommend → 展示层
//	                                                         ↘ Evaluate（留出法）
//
// 所有函数都是纯计算：不做 I/O，不持有跨调用的可变状态，相同输入得到相同输出。
// 候选生成是朴素的两两合并，适用于十几个题材的词表。
package apriori
