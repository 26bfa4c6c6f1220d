package telemetry

import "strconv"

const (
	LabelCurrentPower = "当前功率"
	LabelDailyEnergy  = "日发电量"
	LabelProfit       = "当日盈利"
	LabelEfficiency   = "运行效率"
	LabelStatus       = "状态"
	LabelTemperature  = "温度"
	LabelHumidity     = "湿度"
)

// Snapshot maps site name to labelled, unit-suffixed values. It is the form
// the assistant receives as context.
type Snapshot map[string]map[string]string

// Format converts readings into the labelled snapshot.
func Format(sites []Site) Snapshot {
	snapshot := make(Snapshot, len(sites))
	for _, site := range sites {
		snapshot[site.Name] = map[string]string{
			LabelCurrentPower: formatNumber(site.CurrentPower) + "kW",
			LabelDailyEnergy:  formatNumber(site.DailyEnergy) + "kWh",
			LabelProfit:       formatNumber(site.Profit) + "元",
			LabelEfficiency:   formatNumber(site.Efficiency) + "%",
			LabelStatus:       site.Status.Label(),
			LabelTemperature:  formatNumber(site.Temperature) + "°C",
			LabelHumidity:     formatNumber(site.Humidity) + "%",
		}
	}
	return snapshot
}

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	clone := make(Snapshot, len(s))
	for site, values := range s {
		copied := make(map[string]string, len(values))
		for label, value := range values {
			copied[label] = value
		}
		clone[site] = copied
	}
	return clone
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
