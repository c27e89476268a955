package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"
	"strconv"
	"time"

	"matchcore/internal/core"
	"matchcore/pkg/domain"
)

// boardDocument is the JSON shape of the pipeline board artifact.
type boardDocument struct {
	GeneratedAt time.Time                         `json:"generated_at"`
	Stats       core.DashboardStats               `json:"stats"`
	Columns     map[core.KanbanColumn][]boardCard `json:"columns"`
}

type boardCard struct {
	DemandID     string `json:"demand_id"`
	ProjectName  string `json:"project_name"`
	CustomerName string `json:"customer_name"`
	Owner        string `json:"owner"`
	Budget       string `json:"budget"`
}

func (w *Worker) renderBoard(ctx context.Context) ([]byte, error) {
	board, err := w.service.Board(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := w.service.Stats(ctx)
	if err != nil {
		return nil, err
	}
	doc := boardDocument{
		GeneratedAt: time.Now().UTC(),
		Stats:       stats,
		Columns:     make(map[core.KanbanColumn][]boardCard, len(board)),
	}
	for column, demands := range board {
		cards := make([]boardCard, 0, len(demands))
		for _, d := range demands {
			cards = append(cards, boardCard{
				DemandID:     d.ID,
				ProjectName:  d.ProjectName,
				CustomerName: d.CustomerName,
				Owner:        d.Owner,
				Budget:       d.Budget,
			})
		}
		doc.Columns[column] = cards
	}
	return json.MarshalIndent(doc, "", "  ")
}

var matrixHeader = []string{
	"group_id", "demand_id", "project_name", "partner_id", "partner_name",
	"rank", "total_score", "product_score", "presales_score", "status",
}

func (w *Worker) renderMatrix(_ context.Context) ([]byte, error) {
	candidates := w.service.MatchCandidates()
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].GroupID != candidates[j].GroupID {
			return candidates[i].GroupID < candidates[j].GroupID
		}
		return candidates[i].Rank < candidates[j].Rank
	})

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(matrixHeader); err != nil {
		return nil, err
	}
	for _, c := range candidates {
		projectName := ""
		if d, ok := w.service.Demand(c.DemandID); ok {
			projectName = d.ProjectName
		}
		partnerName := ""
		if p, ok := w.service.Partner(c.PartnerID); ok {
			partnerName = p.CompanyName
		}
		product, presales := "", ""
		if c.Product != nil {
			product = strconv.Itoa(c.Product.Score)
		}
		if c.Presales != nil {
			presales = strconv.Itoa(c.Presales.Score)
		}
		row := []string{
			c.GroupID, c.DemandID, projectName, c.PartnerID, partnerName,
			strconv.Itoa(c.Rank), strconv.Itoa(c.TotalScore), product, presales, string(c.Status),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	ganttWidth     = 640
	ganttRowHeight = 24
	ganttPadding   = 10
)

var ganttStatusColors = map[core.DemandStatus]color.RGBA{
	domain.DemandStatusPending:     {R: 178, G: 190, B: 195, A: 255},
	domain.DemandStatusAnalyzing:   {R: 253, G: 203, B: 110, A: 255},
	domain.DemandStatusAnalyzed:    {R: 9, G: 132, B: 227, A: 255},
	domain.DemandStatusRecommended: {R: 108, G: 92, B: 231, A: 255},
	domain.DemandStatusSigned:      {R: 0, G: 184, B: 148, A: 255},
}

// renderGantt draws one horizontal bar per demand, positioned by its created
// date and deadline on a shared time axis.
func (w *Worker) renderGantt(ctx context.Context) ([]byte, error) {
	rows, err := w.service.GanttRows(ctx)
	if err != nil {
		return nil, err
	}

	height := ganttPadding*2 + ganttRowHeight*len(rows)
	if len(rows) == 0 {
		height = ganttPadding*2 + ganttRowHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, ganttWidth, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	if len(rows) > 0 {
		min, max := rows[0].Start, rows[0].End
		for _, row := range rows {
			if row.Start.Before(min) {
				min = row.Start
			}
			if row.End.After(max) {
				max = row.End
			}
		}
		span := max.Sub(min)
		if span <= 0 {
			span = 24 * time.Hour
		}
		usable := float64(ganttWidth - 2*ganttPadding)
		for i, row := range rows {
			x0 := ganttPadding + int(usable*float64(row.Start.Sub(min))/float64(span))
			x1 := ganttPadding + int(usable*float64(row.End.Sub(min))/float64(span))
			if x1 <= x0 {
				x1 = x0 + 2
			}
			y0 := ganttPadding + i*ganttRowHeight + 4
			y1 := y0 + ganttRowHeight - 8
			bar, ok := ganttStatusColors[row.Status]
			if !ok {
				bar = color.RGBA{R: 99, G: 110, B: 114, A: 255}
			}
			draw.Draw(img, image.Rect(x0, y0, x1, y1), &image.Uniform{C: bar}, image.Point{}, draw.Src)
		}
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
