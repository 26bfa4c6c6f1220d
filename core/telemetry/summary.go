package telemetry

import "math"

type Summary struct {
	TotalPower    float64 `json:"totalPower"`
	TotalEnergy   float64 `json:"totalEnergy"`
	TotalProfit   float64 `json:"totalProfit"`
	AvgEfficiency float64 `json:"avgEfficiency"`
	OnlineCount   int     `json:"onlineCount"`
	TotalCount    int     `json:"totalCount"`
}

func Summarize(sites []Site) Summary {
	summary := Summary{TotalCount: len(sites)}
	efficiency := 0.0
	for _, site := range sites {
		summary.TotalPower += site.CurrentPower
		summary.TotalEnergy += site.DailyEnergy
		summary.TotalProfit += site.Profit
		efficiency += site.Efficiency
		if site.Status == StatusOnline {
			summary.OnlineCount++
		}
	}

	summary.TotalPower = math.Round(summary.TotalPower)
	summary.TotalEnergy = math.Round(summary.TotalEnergy)
	summary.TotalProfit = roundTo(summary.TotalProfit, 2)
	if len(sites) > 0 {
		summary.AvgEfficiency = roundTo(efficiency/float64(len(sites)), 1)
	}
	return summary
}
