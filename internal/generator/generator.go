package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/vanshika/railplanner/internal/dataset"
	"github.com/vanshika/railplanner/internal/domain"
)

// Generator produces a synthetic rail network: stations on a plane, lines
// through them, timetabled runs along each line and per-segment seat maps.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Stations < 2 {
		cfg.Stations = def.Stations
	}
	if cfg.Lines <= 0 {
		cfg.Lines = def.Lines
	}
	if cfg.StopsPerLine < 2 {
		cfg.StopsPerLine = def.StopsPerLine
	}
	if cfg.StopsPerLine > cfg.Stations {
		cfg.StopsPerLine = cfg.Stations
	}
	if cfg.DeparturesPerLine <= 0 {
		cfg.DeparturesPerLine = def.DeparturesPerLine
	}
	if cfg.HeadwayMinutes <= 0 {
		cfg.HeadwayMinutes = def.HeadwayMinutes
	}
	if cfg.Wagons <= 0 {
		cfg.Wagons = def.Wagons
	}
	if cfg.SeatsPerWagon <= 0 {
		cfg.SeatsPerWagon = def.SeatsPerWagon
	}
	if cfg.Occupancy < 0 || cfg.Occupancy >= 1 {
		cfg.Occupancy = def.Occupancy
	}
	if cfg.SpeedKmh <= 0 {
		cfg.SpeedKmh = def.SpeedKmh
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.ServiceStart.IsZero() {
		cfg.ServiceStart = def.ServiceStart
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

type station struct {
	id   string
	x, y float64 // km
}

// Generate builds the network. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (dataset.Dataset, error) {
	stations := g.stations()

	type pair struct{ a, b string }
	linkMinutes := map[pair]float64{}
	var linkOrder []pair

	var segments []domain.TrainSegment
	var availability []domain.SegmentAvailability

	for line := 0; line < g.cfg.Lines; line++ {
		if err := ctx.Err(); err != nil {
			return dataset.Dataset{}, err
		}

		stops := g.route(stations)
		legMinutes := make([]int, len(stops)-1)
		for i := range legMinutes {
			km := distance(stops[i], stops[i+1])
			minutes := int(math.Ceil(km / g.cfg.SpeedKmh * 60))
			if minutes < 5 {
				minutes = 5
			}
			legMinutes[i] = minutes

			for _, p := range []pair{{stops[i].id, stops[i+1].id}, {stops[i+1].id, stops[i].id}} {
				if _, ok := linkMinutes[p]; !ok {
					linkOrder = append(linkOrder, p)
					linkMinutes[p] = float64(minutes)
				} else if float64(minutes) < linkMinutes[p] {
					linkMinutes[p] = float64(minutes)
				}
			}
		}

		prefix := linePrefixes[line%len(linePrefixes)]
		offset := time.Duration(g.rand.Intn(60)) * time.Minute
		for run := 0; run < g.cfg.DeparturesPerLine; run++ {
			trainID := fmt.Sprintf("%s%d%02d", prefix, line+1, run+1)
			clock := g.cfg.ServiceStart.Add(offset + time.Duration(run*g.cfg.HeadwayMinutes)*time.Minute)
			occupied := g.initialOccupancy()

			for leg, minutes := range legMinutes {
				dep := clock
				arr := dep.Add(time.Duration(minutes) * time.Minute)
				id := domain.SegmentID(fmt.Sprintf("%s-%02d", trainID, leg+1))
				segments = append(segments, domain.TrainSegment{
					ID:               id,
					TrainID:          domain.TrainID(trainID),
					FromStationID:    domain.StationID(stops[leg].id),
					ToStationID:      domain.StationID(stops[leg+1].id),
					DepartureEpochMs: dep.UnixMilli(),
					ArrivalEpochMs:   arr.UnixMilli(),
				})
				availability = append(availability, domain.SegmentAvailability{
					SegmentID:        id,
					AvailableSeatIDs: g.freeSeats(occupied),
				})
				g.churn(occupied)
				clock = arr.Add(time.Duration(2+g.rand.Intn(4)) * time.Minute)
			}
		}
	}

	edges := make([]domain.Edge, 0, len(linkOrder))
	for _, p := range linkOrder {
		w := linkMinutes[p]
		edges = append(edges, domain.Edge{Source: domain.NodeID(p.a), Target: domain.NodeID(p.b), Weight: &w})
	}

	ds := dataset.FromDomain(edges, segments, availability)
	directed := true
	ds.Directed = &directed
	return ds, nil
}

func (g *Generator) stations() []station {
	out := make([]station, g.cfg.Stations)
	for i := range out {
		name := fmt.Sprintf("ST-%03d", i+1)
		if i < len(stationNames) {
			name = stationNames[i]
		}
		out[i] = station{id: name, x: g.rand.Float64() * 600, y: g.rand.Float64() * 400}
	}
	return out
}

// route picks StopsPerLine distinct stations and orders them west to east
// with a little jitter so lines cross each other.
func (g *Generator) route(stations []station) []station {
	perm := g.rand.Perm(len(stations))[:g.cfg.StopsPerLine]
	stops := make([]station, len(perm))
	for i, idx := range perm {
		stops[i] = stations[idx]
	}
	for i := 1; i < len(stops); i++ {
		for j := i; j > 0 && stops[j].x < stops[j-1].x; j-- {
			stops[j], stops[j-1] = stops[j-1], stops[j]
		}
	}
	if g.rand.Intn(2) == 0 {
		for i, j := 0, len(stops)-1; i < j; i, j = i+1, j-1 {
			stops[i], stops[j] = stops[j], stops[i]
		}
	}
	return stops
}

func (g *Generator) initialOccupancy() [][]bool {
	occupied := make([][]bool, g.cfg.Wagons)
	for w := range occupied {
		occupied[w] = make([]bool, g.cfg.SeatsPerWagon)
		for s := range occupied[w] {
			occupied[w][s] = g.rand.Float64() < g.cfg.Occupancy
		}
	}
	return occupied
}

// churn flips a few seats between legs: some passengers leave, others board.
func (g *Generator) churn(occupied [][]bool) {
	for w := range occupied {
		for s := range occupied[w] {
			if g.rand.Float64() < 0.15 {
				occupied[w][s] = !occupied[w][s]
			}
		}
	}
}

func (g *Generator) freeSeats(occupied [][]bool) domain.SeatSet {
	free := domain.NewSeatSet()
	for w := range occupied {
		for s, taken := range occupied[w] {
			if !taken {
				free[domain.SeatID(fmt.Sprintf("%d-%d", w+1, s+1))] = struct{}{}
			}
		}
	}
	return free
}

func distance(a, b station) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}

var linePrefixes = []string{"IC", "RE", "ICE", "EXP", "R"}

var stationNames = []string{
	"Kyiv", "Lviv", "Odesa", "Kharkiv", "Dnipro", "Zhytomyr", "Rivne", "Ternopil",
	"Khmelnytskyi", "Vinnytsia", "Bila_Tserkva", "Uman", "Mykolaiv", "Poltava",
	"Chernihiv", "Sumy", "Cherkasy", "Kropyvnytskyi", "Zaporizhzhia", "Lutsk",
	"Uzhhorod", "Ivano_Frankivsk", "Chernivtsi", "Kherson",
}
