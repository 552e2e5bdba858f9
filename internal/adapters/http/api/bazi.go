package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/internal/domain/materials"
	"github.com/okian/tianji/pkg/logger"
)

// maxBodyBytes caps request bodies for JSON endpoints.
const maxBodyBytes = 64 << 10

// BaziDependencies defines what the reading endpoints need.
type BaziDependencies interface {
	ReadingDependencies
	MaterialsDependencies
}

// BaziHandler serves BaZi readings.
type BaziHandler struct {
	deps BaziDependencies
	log  logger.Logger
}

// NewBaziHandler creates a new reading handler.
func NewBaziHandler(deps BaziDependencies, log logger.Logger) *BaziHandler {
	return &BaziHandler{deps: deps, log: log}
}

type pillarResponse struct {
	Position      string       `json:"position"`
	Pillar        string       `json:"pillar"`
	Stem          string       `json:"stem"`
	StemPinyin    string       `json:"stem_pinyin"`
	StemElement   bazi.Element `json:"stem_element"`
	StemYinYang   string       `json:"stem_yin_yang"`
	Branch        string       `json:"branch"`
	BranchPinyin  string       `json:"branch_pinyin"`
	BranchElement bazi.Element `json:"branch_element"`
	BranchYinYang string       `json:"branch_yin_yang"`
	Zodiac        string       `json:"zodiac"`
	ZodiacEnglish string       `json:"zodiac_english"`
}

type elementResponse struct {
	Element bazi.Element `json:"element"`
	Hanzi   string       `json:"hanzi"`
	Color   string       `json:"color"`
	Count   int          `json:"count"`
}

type rankResponse struct {
	Element bazi.Element `json:"element"`
	Count   int          `json:"count"`
}

type readingResponse struct {
	Input     bazi.BirthInput      `json:"input"`
	Chart     string               `json:"chart"`
	Pillars   []pillarResponse     `json:"pillars"`
	Elements  []elementResponse    `json:"elements"`
	Missing   []bazi.Element       `json:"missing"`
	Ranking   []rankResponse       `json:"ranking"`
	Strong    bazi.Element         `json:"strong"`
	Weak      bazi.Element         `json:"weak"`
	UsefulGod bazi.Element         `json:"useful_god"`
	OutputGod bazi.Element         `json:"output_god"`
	Materials []materials.Material `json:"materials"`
}

var pillarPositions = [4]string{"year", "month", "day", "hour"}

func newReadingResponse(r bazi.Reading, items []materials.Material) readingResponse {
	resp := readingResponse{
		Input:     r.Input,
		Chart:     r.Chart.String(),
		Pillars:   make([]pillarResponse, 0, 4),
		Elements:  make([]elementResponse, 0, 5),
		Missing:   r.Histogram.Missing(),
		Ranking:   make([]rankResponse, 0, len(r.Assessment.Ranking)),
		Strong:    r.Assessment.Strong,
		Weak:      r.Assessment.Weak,
		UsefulGod: r.Assessment.UsefulGod,
		OutputGod: r.Assessment.OutputGod,
		Materials: items,
	}
	if resp.Missing == nil {
		resp.Missing = []bazi.Element{}
	}
	if resp.Materials == nil {
		resp.Materials = []materials.Material{}
	}
	for i, p := range r.Chart.Pillars() {
		resp.Pillars = append(resp.Pillars, pillarResponse{
			Position:      pillarPositions[i],
			Pillar:        p.String(),
			Stem:          p.Stem.String(),
			StemPinyin:    p.Stem.Pinyin(),
			StemElement:   p.Stem.Element(),
			StemYinYang:   p.Stem.YinYang().String(),
			Branch:        p.Branch.String(),
			BranchPinyin:  p.Branch.Pinyin(),
			BranchElement: p.Branch.Element(),
			BranchYinYang: p.Branch.YinYang().String(),
			Zodiac:        p.Branch.Zodiac().String(),
			ZodiacEnglish: p.Branch.Zodiac().English(),
		})
	}
	for _, ec := range r.Histogram.Entries() {
		resp.Elements = append(resp.Elements, elementResponse{
			Element: ec.Element,
			Hanzi:   ec.Element.Hanzi(),
			Color:   ec.Element.Color(),
			Count:   ec.Count,
		})
	}
	for _, ec := range r.Assessment.Ranking {
		resp.Ranking = append(resp.Ranking, rankResponse{Element: ec.Element, Count: ec.Count})
	}
	return resp
}

// HandlePostBazi handles POST /api/bazi with a JSON birth input.
func (h *BaziHandler) HandlePostBazi(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_bazi"
	var in bazi.BirthInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.respond(w, r, op, in)
}

// HandleGetBazi handles GET /api/bazi?year=&month=&day=&hour=.
func (h *BaziHandler) HandleGetBazi(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_bazi"
	in, err := birthInputFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.respond(w, r, op, in)
}

func (h *BaziHandler) respond(w http.ResponseWriter, r *http.Request, op string, in bazi.BirthInput) {
	ctx := r.Context()
	reading, err := h.deps.Reading(ctx, in)
	if err != nil {
		if errors.Is(err, bazi.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
			return
		}
		h.log.Error(ctx, "reading failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}

	items, err := h.deps.Materials(ctx, reading.Assessment.UsefulGod)
	if err != nil {
		// The reading stands on its own; recommendations are best effort.
		h.log.Warn(ctx, "materials lookup failed", logger.Error(err))
	}
	writeJSON(w, http.StatusOK, newReadingResponse(reading, items))
}

func birthInputFromQuery(r *http.Request) (bazi.BirthInput, error) {
	q := r.URL.Query()
	var in bazi.BirthInput
	fields := []struct {
		name string
		dst  *int
	}{
		{"year", &in.Year},
		{"month", &in.Month},
		{"day", &in.Day},
		{"hour", &in.Hour},
	}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			return in, fmt.Errorf("missing %s", f.name)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("%s must be an integer", f.name)
		}
		*f.dst = v
	}
	return in, nil
}
