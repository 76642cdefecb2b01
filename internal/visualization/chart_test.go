package visualization

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/pricecast/internal/pipeline"
)

func sampleResult() *pipeline.ForecastResult {
	return &pipeline.ForecastResult{
		Symbol:          "ETH",
		Market:          "USD",
		DateLabels:      []string{"2024-01-01", "2024-01-02", "2024-01-03", pipeline.TomorrowLabel},
		RecentActual:    []float64{100, 101, 102},
		RecentPredicted: []float64{99.5, 100.8, 101.7},
		NextForecast:    103.2,
		ActualTrain:     []float64{90, 91},
		PredictedTrain:  []float64{90.2, 90.9},
		ActualVal:       []float64{100, 101},
		PredictedVal:    []float64{99.8, 100.9},
	}
}

func TestBuildForecastChart(t *testing.T) {
	chart := BuildForecastChart(sampleResult())

	require.Len(t, chart.Traces, 3)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "tomorrow"}, chart.Labels)

	actual := chart.Traces[0]
	predicted := chart.Traces[1]
	forecast := chart.Traces[2]

	// Actual and fitted values occupy all but the final slot.
	require.Len(t, actual.Values, 4)
	assert.Equal(t, 100.0, *actual.Values[0])
	assert.Equal(t, 102.0, *actual.Values[2])
	assert.Nil(t, actual.Values[3])
	assert.Equal(t, 101.7, *predicted.Values[2])
	assert.Nil(t, predicted.Values[3])

	// The forecast marker sits alone under the placeholder label.
	assert.Equal(t, ChartTypeScatter, forecast.Type)
	assert.Equal(t, MarkerDiamond, forecast.Marker)
	for i := 0; i < 3; i++ {
		assert.Nil(t, forecast.Values[i])
	}
	require.NotNil(t, forecast.Values[3])
	assert.Equal(t, 103.2, *forecast.Values[3])
}

func TestBuildFitChart(t *testing.T) {
	chart := BuildFitChart(sampleResult())

	require.Len(t, chart.Traces, 3)

	actual := chart.Traces[0]
	fitTrain := chart.Traces[1]
	fitVal := chart.Traces[2]

	// Training fit covers the prefix, validation fit the suffix.
	require.Len(t, actual.Values, 4)
	assert.Equal(t, 90.0, *actual.Values[0])
	assert.Equal(t, 101.0, *actual.Values[3])
	assert.NotNil(t, fitTrain.Values[1])
	assert.Nil(t, fitTrain.Values[2])
	assert.Nil(t, fitVal.Values[1])
	assert.Equal(t, 99.8, *fitVal.Values[2])
}

func TestChartEncodesToJSON(t *testing.T) {
	chart := BuildForecastChart(sampleResult())

	encoded, err := chart.Encode()
	require.NoError(t, err)

	var decoded Chart
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, chart.Title, decoded.Title)
	require.Len(t, decoded.Traces, 3)

	// Gaps survive the round trip as nulls.
	assert.Nil(t, decoded.Traces[0].Values[3])
	assert.NotNil(t, decoded.Traces[2].Values[3])
}
