package telemetry

import (
	"math"
	"math/rand/v2"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusWarning Status = "warning"
	StatusOffline Status = "offline"
)

// Label returns the status as shown to the assistant.
func (s Status) Label() string {
	switch s {
	case StatusOnline:
		return "在线"
	case StatusWarning:
		return "告警"
	default:
		return "离线"
	}
}

// Site is a single simulated energy site reading.
type Site struct {
	Name         string  `json:"name"`
	CurrentPower float64 `json:"currentPower"` // kW
	DailyEnergy  float64 `json:"dailyEnergy"`  // kWh
	Profit       float64 `json:"profit"`       // 元
	Efficiency   float64 `json:"efficiency"`   // %
	Status       Status  `json:"status"`
	Temperature  float64 `json:"temperature"` // °C
	Humidity     float64 `json:"humidity"`    // %
}

type SiteSpec struct {
	Name      string
	BasePower float64
}

// DefaultSites is the fixed set of simulated sites.
var DefaultSites = []SiteSpec{
	{Name: "光伏站点A", BasePower: 850},
	{Name: "光伏站点B", BasePower: 1200},
	{Name: "风电站点C", BasePower: 2100},
	{Name: "储能站点D", BasePower: 500},
	{Name: "综合站点E", BasePower: 1600},
}

// Generator produces randomised readings around each site's base power.
type Generator struct {
	sites []SiteSpec
	rand  *rand.Rand
}

func NewGenerator(r *rand.Rand, sites ...SiteSpec) *Generator {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(sites) == 0 {
		sites = DefaultSites
	}
	return &Generator{sites: sites, rand: r}
}

func (g *Generator) Generate() []Site {
	sites := make([]Site, 0, len(g.sites))
	for _, spec := range g.sites {
		currentPower := math.Max(0, spec.BasePower+(g.rand.Float64()-0.5)*200)
		efficiency := 85 + g.rand.Float64()*12
		dailyEnergy := currentPower * (8 + g.rand.Float64()*4)
		profit := dailyEnergy * (0.4 + g.rand.Float64()*0.2)

		sites = append(sites, Site{
			Name:         spec.Name,
			CurrentPower: math.Round(currentPower),
			DailyEnergy:  math.Round(dailyEnergy),
			Profit:       roundTo(profit, 2),
			Efficiency:   roundTo(efficiency, 1),
			Status:       g.status(),
			Temperature:  math.Round(25 + g.rand.Float64()*15),
			Humidity:     math.Round(40 + g.rand.Float64()*30),
		})
	}
	return sites
}

func (g *Generator) status() Status {
	if g.rand.Float64() > 0.1 {
		return StatusOnline
	}
	if g.rand.Float64() > 0.5 {
		return StatusWarning
	}
	return StatusOffline
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
