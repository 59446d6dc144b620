package dataset

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/railplanner/internal/domain"
)

const sampleYAML = `
directed: false
edges:
  - {source: A, target: B, weight: 2}
  - {source: B, target: C}
segments:
  - id: s1
    trainId: T1
    fromStationId: A
    toStationId: B
    departureEpochMs: 1000
    arrivalEpochMs: 2000
availability:
  - segmentId: s1
    availableSeatIds: ["1-10", "1-2"]
`

func TestDecodeYAML(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.False(t, ds.IsDirected(true))
	edges := ds.DomainEdges()
	require.Len(t, edges, 2)
	assert.Equal(t, 2.0, edges[0].ResolvedWeight())
	assert.Equal(t, 1.0, edges[1].ResolvedWeight())

	segments, err := ds.DomainSegments()
	require.NoError(t, err)
	assert.Equal(t, domain.SegmentID("s1"), segments[0].ID)

	avail := ds.DomainAvailability()
	require.Len(t, avail, 1)
	assert.True(t, avail[0].AvailableSeatIDs.Has("1-10"))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"edges": [], "trains": []}`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("nodes: []\n"), FormatYAML)
	assert.Error(t, err)
}

func TestDomainSegmentsValidation(t *testing.T) {
	ds := Dataset{Segments: []Segment{
		{ID: "s1", TrainID: "T", FromStationID: "A", ToStationID: "B", DepartureEpochMs: 10, ArrivalEpochMs: 5},
	}}
	_, err := ds.DomainSegments()
	assert.ErrorIs(t, err, domain.ErrInvalidSegment)

	ds = Dataset{Segments: []Segment{
		{ID: "s1", TrainID: "T", FromStationID: "A", ToStationID: "B", DepartureEpochMs: 1, ArrivalEpochMs: 5},
		{ID: "s1", TrainID: "T", FromStationID: "B", ToStationID: "C", DepartureEpochMs: 6, ArrivalEpochMs: 9},
	}}
	_, err = ds.DomainSegments()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWriteAndLoadBothFormats(t *testing.T) {
	w := 3.5
	original := FromDomain(
		[]domain.Edge{{Source: "A", Target: "B", Weight: &w}},
		[]domain.TrainSegment{{ID: "s1", TrainID: "T1", FromStationID: "A", ToStationID: "B", DepartureEpochMs: 1, ArrivalEpochMs: 2}},
		[]domain.SegmentAvailability{{SegmentID: "s1", AvailableSeatIDs: domain.NewSeatSet("1-10", "1-2")}},
	)
	assert.Equal(t, []string{"1-2", "1-10"}, original.Availability[0].AvailableSeatIDs)

	dir := t.TempDir()
	for _, name := range []string{"net.yaml", "net.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, original))
		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, original, loaded, name)
	}
}

func TestStoresIndexesDataset(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)

	stores, err := ds.Stores(true)
	require.NoError(t, err)

	ctx := context.Background()
	back, err := stores.Graph.OutgoingNeighbors(ctx, "B")
	require.NoError(t, err)
	assert.Len(t, back, 2, "undirected dataset adds reverse edges")

	segs, err := stores.Timetable.SegmentsFromStation(ctx, "A", 0)
	require.NoError(t, err)
	assert.Len(t, segs, 1)
}

func TestEncodeJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, Dataset{Segments: []Segment{{ID: "s1", TrainID: "T1"}}}))
	assert.Contains(t, buf.String(), `"trainId": "T1"`)
	assert.NotContains(t, buf.String(), "edges")
}
