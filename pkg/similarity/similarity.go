// Package similarity 提供引擎共用的向量相似度函数。
// 两个函数都把"无信号"的退化输入折算为 0.0，不向上层传播 NaN 或错误。
package similarity

import "math"

// Cosine 计算两个等长向量的余弦相似度：dot(a,b) / (|a|·|b|)。
// 任一向量范数为零时返回 0.0：零向量意味着没有信号，
// 应按"不相似"参与排序，而不是产生未定义值。
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Pearson 计算皮尔逊相关系数。
// 评分矩阵中的 0 是"未评分"哨兵而非真实零值，因此只在双方都非零的
// 维度子集上计算；有效重叠不足 2 个时样本退化，直接返回 0.0。
func Pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	x := make([]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if a[i] == 0 || b[i] == 0 {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 {
		return 0
	}

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(len(x))
	meanY /= float64(len(y))

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
