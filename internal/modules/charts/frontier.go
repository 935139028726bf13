package charts

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/aristath/frontier/internal/modules/allocation"
	"github.com/aristath/frontier/internal/modules/montecarlo"
	"github.com/aristath/frontier/internal/modules/optimization"
)

var (
	cloudColor    = drawing.Color{R: 0x91, G: 0xcc, B: 0x75, A: 0x66}
	frontColor    = drawing.Color{R: 0x54, G: 0x70, B: 0xc6, A: 0xff}
	currentColor  = drawing.Color{R: 0xee, G: 0x66, B: 0x66, A: 0xff}
	selectedColor = drawing.Color{R: 0xfa, G: 0xc8, B: 0x58, A: 0xff}
)

// xy holds the coordinates of one scatter series, EV on x and ER on y.
type xy struct {
	x, y []float64
}

func (s *xy) add(ev, er float64) {
	if finite(ev) && finite(er) {
		s.x = append(s.x, ev)
		s.y = append(s.y, er)
	}
}

func (s *xy) empty() bool { return len(s.x) == 0 }

// Frontier renders the risk/return plane: the Monte Carlo cloud, the Pareto
// front ordered by volatility, the current allocation and, when selected is
// not allocation.BaselineIndex, the selected front member.
func Frontier(front *optimization.Front, cloud montecarlo.Cloud, current montecarlo.Point, selected int) ([]byte, error) {
	sols := make([]optimization.Solution, 0, front.Len())
	for _, sol := range front.Solutions {
		if finite(sol.ER) && finite(sol.EV) {
			sols = append(sols, sol)
		}
	}
	if len(sols) == 0 {
		return nil, ErrNothingToPlot
	}
	sort.SliceStable(sols, func(i, j int) bool { return sols[i].EV < sols[j].EV })

	var frontXY, cloudXY, currentXY, selectedXY xy
	for _, sol := range sols {
		frontXY.add(sol.EV, sol.ER)
	}
	for _, p := range cloud.Points {
		cloudXY.add(p.EV, p.ER)
	}
	currentXY.add(current.EV, current.ER)
	if selected != allocation.BaselineIndex && selected >= 0 && selected < front.Len() {
		sol := front.Solutions[selected]
		selectedXY.add(sol.EV, sol.ER)
	}

	var series []chart.Series
	if !cloudXY.empty() {
		series = append(series, scatter("Monte Carlo", cloudXY, cloudColor, 2))
	}
	series = append(series, chart.ContinuousSeries{
		Name: "Pareto front",
		Style: chart.Style{
			StrokeColor: frontColor,
			StrokeWidth: 2,
			DotColor:    frontColor,
			DotWidth:    3,
		},
		XValues: frontXY.x,
		YValues: frontXY.y,
	})
	if !currentXY.empty() {
		series = append(series, scatter("Current", currentXY, currentColor, 7))
	}
	if !selectedXY.empty() {
		series = append(series, scatter(fmt.Sprintf("Solution %d", selected), selectedXY, selectedColor, 7))
	}

	all := []xy{frontXY, cloudXY, currentXY, selectedXY}
	graph := chart.Chart{
		Title:  "Pareto front • ER vs EV",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Right: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Volatility (EV)",
			ValueFormatter: ratioFormatter,
			Range:          axisRange(all, func(s xy) []float64 { return s.x }),
		},
		YAxis: chart.YAxis{
			Name:           "Expected return (ER)",
			ValueFormatter: ratioFormatter,
			Range:          axisRange(all, func(s xy) []float64 { return s.y }),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render frontier chart: %w", err)
	}
	return buf.Bytes(), nil
}

func scatter(name string, s xy, color drawing.Color, dot float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name: name,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotColor:    color,
			DotWidth:    dot,
		},
		XValues: s.x,
		YValues: s.y,
	}
}

// axisRange spans every plotted value with a margin. A degenerate span
// (a single point) is widened so the axis never has zero length.
func axisRange(series []xy, values func(xy) []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range values(s) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(lo)*0.1, 0.01)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func ratioFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.3f", f)
	}
	return ""
}
