package visualization

import (
	"encoding/json"

	"github.com/inferloop/pricecast/internal/pipeline"
)

// ChartType defines chart types
type ChartType string

const (
	ChartTypeLine    ChartType = "line"
	ChartTypeScatter ChartType = "scatter"
)

// MarkerSymbol defines point marker shapes
type MarkerSymbol string

const (
	MarkerCircle  MarkerSymbol = "circle"
	MarkerDiamond MarkerSymbol = "diamond"
)

// Trace is one named series on the chart. Values align index-wise with
// the chart's Labels; nil entries are gaps the renderer should skip.
type Trace struct {
	Name      string       `json:"name"`
	Type      ChartType    `json:"type"`
	Values    []*float64   `json:"values"`
	Color     string       `json:"color"`
	LineWidth float64      `json:"line_width,omitempty"`
	Marker    MarkerSymbol `json:"marker,omitempty"`
}

// Chart is the serializable line/marker chart description handed to the
// plotting collaborator.
type Chart struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels,omitempty"` // category x axis; empty means index-based
	Traces []Trace  `json:"traces"`
}

// Default trace colors, matching the dashboard palette.
const (
	colorActual    = "royalblue"
	colorPredicted = "darkorange"
	colorForecast  = "red"
)

// BuildForecastChart translates a forecast result into a chart with
// three traces: trailing actual prices, the model's fit over the same
// span, and a single marker for the next-day forecast under the
// placeholder label.
func BuildForecastChart(result *pipeline.ForecastResult) *Chart {
	n := len(result.DateLabels)

	actual := make([]*float64, n)
	predicted := make([]*float64, n)
	forecast := make([]*float64, n)

	// The final label slot belongs to the forecast alone.
	for i, v := range result.RecentActual {
		actual[i] = ptr(v)
	}
	for i, v := range result.RecentPredicted {
		predicted[i] = ptr(v)
	}
	forecast[n-1] = ptr(result.NextForecast)

	return &Chart{
		Title:  "Predicting the close price of the next trading day",
		Labels: result.DateLabels,
		Traces: []Trace{
			{
				Name:      "Actual prices",
				Type:      ChartTypeLine,
				Values:    actual,
				Color:     colorActual,
				LineWidth: 0.8,
			},
			{
				Name:      "Past predicted prices",
				Type:      ChartTypeLine,
				Values:    predicted,
				Color:     colorPredicted,
				LineWidth: 0.8,
			},
			{
				Name:   "Predicted price for next day",
				Type:   ChartTypeScatter,
				Values: forecast,
				Color:  colorForecast,
				Marker: MarkerDiamond,
			},
		},
	}
}

// BuildFitChart builds the training/validation diagnostic chart: the
// actual series next to the model's in-sample fit, validation appended
// after training so the chronological split stays visible.
func BuildFitChart(result *pipeline.ForecastResult) *Chart {
	n := len(result.ActualTrain) + len(result.ActualVal)

	actual := make([]*float64, n)
	fitTrain := make([]*float64, n)
	fitVal := make([]*float64, n)

	for i, v := range result.ActualTrain {
		actual[i] = ptr(v)
	}
	offset := len(result.ActualTrain)
	for i, v := range result.ActualVal {
		actual[offset+i] = ptr(v)
	}
	for i, v := range result.PredictedTrain {
		fitTrain[i] = ptr(v)
	}
	for i, v := range result.PredictedVal {
		fitVal[offset+i] = ptr(v)
	}

	return &Chart{
		Title: "Model fit on training and validation data",
		Traces: []Trace{
			{Name: "Actual prices", Type: ChartTypeLine, Values: actual, Color: colorActual, LineWidth: 0.8},
			{Name: "Predicted (train)", Type: ChartTypeLine, Values: fitTrain, Color: "seagreen", LineWidth: 0.8},
			{Name: "Predicted (validation)", Type: ChartTypeLine, Values: fitVal, Color: colorPredicted, LineWidth: 0.8},
		},
	}
}

// Encode renders the chart as indented JSON for the collaborator.
func (c *Chart) Encode() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func ptr(v float64) *float64 {
	return &v
}
