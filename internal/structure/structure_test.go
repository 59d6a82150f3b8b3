// SPDX-License-Identifier: Apache-2.0

package structure_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/editalproj/edital-mcp/internal/structure"
)

// ---------------------------------------------------------------------------
// fixtures
// ---------------------------------------------------------------------------

type fakeSource struct {
	pages    []string
	countErr error
	pageErr  map[int]error
}

func (f *fakeSource) PageCount(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.pages), nil
}

func (f *fakeSource) PageText(_ context.Context, index int) (string, error) {
	if err := f.pageErr[index]; err != nil {
		return "", err
	}
	return f.pages[index], nil
}

const specPageText = `ESPECIFICAÇÕES TÉCNICAS - CÂMERA DOME
3.1.1. Resolução mínima de 4MP
3.1.2. Lente varifocal motorizada
a) Suporte a PoE
b) Grau de proteção IP67
• Visão noturna por infravermelho
- Garantia mínima de 36 meses
`

func pagesOf(texts ...string) []structure.Page {
	pages := make([]structure.Page, len(texts))
	for i, t := range texts {
		pages[i] = structure.Page{Index: i, Text: t}
	}
	return pages
}

func blankPages(n int) []string {
	return make([]string, n)
}

var fixedClock = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }

// ---------------------------------------------------------------------------
// Item rows
// ---------------------------------------------------------------------------

func TestMatchItemRows(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []structure.ItemRow
	}{
		{
			name: "well formed pricing row",
			text: "8 CÂMERA DOME Unidade 246 R$ 3.439,53",
			want: []structure.ItemRow{{Number: "8", Description: "CÂMERA DOME", Unit: structure.UnitUnidade, Quantity: 246}},
		},
		{
			name: "description whitespace is collapsed",
			text: "  12   SWITCH   24 PORTAS\tGERENCIÁVEL  Unidade 10 R$ 8.000,00",
			want: []structure.ItemRow{{Number: "12", Description: "SWITCH 24 PORTAS GERENCIÁVEL", Unit: structure.UnitUnidade, Quantity: 10}},
		},
		{
			name: "pares is not truncated to par",
			text: "3 LUVA ISOLANTE CLASSE 0 Pares 40 R$ 120,00",
			want: []structure.ItemRow{{Number: "3", Description: "LUVA ISOLANTE CLASSE 0", Unit: structure.UnitPares, Quantity: 40}},
		},
		{
			name: "short description is noise",
			text: "4 CABO Metros 300 R$ 2,50",
			want: []structure.ItemRow{},
		},
		{
			name: "zero quantity is dropped",
			text: "5 INSTALAÇÃO DE CÂMERAS Serviço 0 R$ 1.000,00",
			want: []structure.ItemRow{},
		},
		{
			name: "row without currency marker is not a pricing row",
			text: "6 TREINAMENTO OPERACIONAL Turma 2 unidades",
			want: []structure.ItemRow{},
		},
		{
			name: "several rows in page order",
			text: "1 SERVIDOR DE GRAVAÇÃO Unidade 2 R$ 50.000,00\nfoo\n2 TREINAMENTO OPERACIONAL Turma 3 R$ 4.000,00",
			want: []structure.ItemRow{
				{Number: "1", Description: "SERVIDOR DE GRAVAÇÃO", Unit: structure.UnitUnidade, Quantity: 2},
				{Number: "2", Description: "TREINAMENTO OPERACIONAL", Unit: structure.UnitTurma, Quantity: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, structure.MatchItemRows(tt.text))
		})
	}
}

func TestItemExtractor_FirstOccurrenceWins(t *testing.T) {
	e := structure.NewItemExtractor(0)
	pages := pagesOf(
		"1 CÂMERA BULLET 4MP Unidade 10 R$ 1.000,00\n1 CÂMERA REPETIDA Unidade 99 R$ 1,00",
		"2 SENSOR DE PRESENÇA Unidade 5 R$ 80,00\n1 CÂMERA OUTRA PÁGINA Unidade 7 R$ 1,00",
	)

	report, err := e.Extract(context.Background(), pages)
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, 2, report.Duplicates)
	assert.Equal(t, "CÂMERA BULLET 4MP", report.Items[0].Description)
	assert.Equal(t, 1, report.Items[0].FoundOnPage)
	assert.Equal(t, "2", report.Items[1].ItemID)
	assert.Equal(t, 2, report.Items[1].FoundOnPage)
	assert.Empty(t, report.Diagnostic)
}

func TestItemExtractor_Invariants(t *testing.T) {
	e := structure.NewItemExtractor(0)
	pages := pagesOf(
		"10 CÂMERA DOME IP Unidade 246 R$ 3.439,53\n11 SOFTWARE VMS LICENÇA Unidade 246 R$ 300,00",
		"",
		"10 CÂMERA DOME IP Unidade 246 R$ 3.439,53\n12 CABO UTP CAT6 Metros 3000 R$ 2,10",
	)

	first, err := e.Extract(context.Background(), pages)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), pages)
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items, "extraction must be idempotent")

	ids := map[string]bool{}
	for _, it := range first.Items {
		assert.False(t, ids[it.ItemID], "duplicate item_id %s", it.ItemID)
		ids[it.ItemID] = true
		assert.GreaterOrEqual(t, it.FoundOnPage, 1)
		assert.Greater(t, it.Quantity, 0)
	}
	assert.Len(t, first.Items, 3)
}

func TestItemExtractor_MaxScanPages(t *testing.T) {
	texts := blankPages(5)
	texts[4] = "1 CÂMERA DOME IP Unidade 2 R$ 10,00"

	report, err := structure.NewItemExtractor(3).Extract(context.Background(), pagesOf(texts...))
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Equal(t, 3, report.PagesScanned)
	assert.Contains(t, report.Diagnostic, "first 3 pages")
}

func TestItemExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := structure.NewItemExtractor(0).Extract(ctx, pagesOf("1 CÂMERA DOME IP Unidade 2 R$ 10,00"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Items)
}

// ---------------------------------------------------------------------------
// Markers, keywords and the estimator
// ---------------------------------------------------------------------------

func TestCountRequirementMarkers(t *testing.T) {
	counts := structure.CountRequirementMarkers(specPageText)
	assert.Equal(t, 2, counts.Hierarchical)
	assert.Equal(t, 2, counts.Lettered)
	assert.Equal(t, 1, counts.Bullets)
	assert.Equal(t, 1, counts.DashLines)
	assert.Equal(t, 6, counts.Total())
}

func TestMarkerPredicates(t *testing.T) {
	assert.Equal(t, 1, structure.CountHierarchical("4.2.1.3 Suporte a H.265"))
	assert.Equal(t, 0, structure.CountHierarchical("4.2 Suporte a H.265"))
	assert.Equal(t, 0, structure.CountLettered("A) maiúscula não conta"))
	assert.Equal(t, 2, structure.CountBullets("● um\n▪ dois\nsem marcador"))
	assert.Equal(t, 0, structure.CountDashLines("- minúscula não conta"))
	assert.Equal(t, 1, structure.CountDashLines("  – Alimentação 12V"))
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"CÂMERA", "DOME"}, structure.Keywords("Câmera dome", 3))
	assert.Equal(t, []string{"SERVIDOR", "GRAVAÇÃO", "VÍDEO"}, structure.Keywords("servidor para gravação de vídeo com redundância", 3))
	assert.Empty(t, structure.Keywords("kit de uso", 3))
	assert.Equal(t, []string{"CABO", "BLINDADO"}, structure.Keywords("cabo com ou sem par blindado", 3))
	assert.Equal(t, []string{"NOBREAK", "EDITAL"}, structure.Keywords("nobreak para uso conforme edital", 3))
}

func TestRequirementEstimator(t *testing.T) {
	e := structure.NewRequirementEstimator()
	tests := []struct {
		description string
		category    string
	}{
		{description: "CÂMERA DOME", category: "camera"},
		{description: "Servidor de gravação", category: "servidor"},
		{description: "LICENÇA DE SOFTWARE VMS", category: "software"},
		{description: "SWITCH 24 PORTAS", category: "switch"},
		{description: "SENSOR DE ABERTURA", category: "sensor"},
		{description: "INSTALAÇÃO E CONFIGURAÇÃO", category: "servico"},
		{description: "MOBILIÁRIO DE ESCRITÓRIO", category: "outros"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			est := e.Estimate(tt.description)
			assert.Equal(t, tt.category, est.Category)
			assert.Greater(t, est.Requirements, 0)
		})
	}
}

// ---------------------------------------------------------------------------
// SpecLocator
// ---------------------------------------------------------------------------

func TestSpecLocator_Locate(t *testing.T) {
	texts := blankPages(30)
	texts[5] = specPageText // before the scan range
	texts[21] = specPageText
	texts[22] = "CÂMERA DOME\na) um\nb) dois\nc) três" // exactly at the threshold
	texts[23] = "Requisitos da CÂMERA\n1.1.1 um\n1.1.2 dois\n1.1.3 três\n1.1.4 quatro\n1.1.5 cinco"
	texts[24] = "3.1.1. sem palavra-chave\n3.1.2. x\n3.1.3. y\n3.1.4. z"

	item := structure.Item{ItemID: "8", Description: "CÂMERA DOME"}
	loc, err := structure.NewSpecLocator().Locate(context.Background(), item, pagesOf(texts...))
	require.NoError(t, err)
	assert.False(t, loc.SpecPages.Unknown)
	assert.Equal(t, []int{22, 24}, loc.SpecPages.Pages)
	assert.Equal(t, 6+5, loc.EstimatedRequirements)
	assert.Empty(t, loc.Category)
}

func TestSpecLocator_FallbackIsUnknown(t *testing.T) {
	item := structure.Item{ItemID: "1", Description: "SWITCH GERENCIÁVEL"}
	loc, err := structure.NewSpecLocator().Locate(context.Background(), item, pagesOf(blankPages(40)...))
	require.NoError(t, err)
	assert.True(t, loc.SpecPages.Unknown)
	assert.Equal(t, "switch", loc.Category)
	assert.Greater(t, loc.EstimatedRequirements, 0)
}

// ---------------------------------------------------------------------------
// Analyzer
// ---------------------------------------------------------------------------

func TestAnalyzer_ThreePageDocument(t *testing.T) {
	src := &fakeSource{pages: []string{
		"ANEXO I - TERMO DE REFERÊNCIA\n8 CÂMERA DOME Unidade 246 R$ 3.439,53\n",
		"Condições gerais de fornecimento.",
		"Disposições finais.",
	}}
	a := structure.NewAnalyzer(structure.WithClock(fixedClock))

	result, err := a.Analyze(context.Background(), "edital.pdf", src)
	require.NoError(t, err)
	assert.Equal(t, structure.StateDone, result.State)

	s := result.Structure
	require.NotNil(t, s)
	assert.Equal(t, 3, s.TotalPages)
	assert.Equal(t, 1, s.TotalItems)
	assert.Len(t, s.Items, s.TotalItems)
	assert.Equal(t, "8", s.Items[0].ItemID)
	assert.Greater(t, s.Items[0].EstimatedRequirements, 0)
	assert.True(t, s.Items[0].SpecPages.Unknown)
	assert.Equal(t, fixedClock(), s.AnalyzedAt)
	assert.Len(t, result.Diagnostics, 1)
	require.NoError(t, s.Validate())
}

func TestAnalyzer_NoItemsIsSoftFailure(t *testing.T) {
	src := &fakeSource{pages: []string{"Edital em formato livre.", ""}}
	result, err := structure.NewAnalyzer().Analyze(context.Background(), "livre.pdf", src)
	require.NoError(t, err)
	assert.Equal(t, structure.StateItemsExtracted, result.State)
	assert.True(t, result.NoItems())
	assert.Equal(t, structure.NoItemsFound, result.Structure.Error)
	assert.Equal(t, 0, result.Structure.TotalItems)
	assert.NotEmpty(t, result.Diagnostics)
	require.NoError(t, result.Structure.Validate())
}

func TestAnalyzer_Unreadable(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{name: "zero pages", src: &fakeSource{}},
		{name: "page count failure", src: &fakeSource{countErr: errors.New("encrypted")}},
		{name: "page read failure", src: &fakeSource{pages: []string{"a", "b"}, pageErr: map[int]error{1: errors.New("bad xref")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := structure.NewAnalyzer().Analyze(context.Background(), "x.pdf", tt.src)
			require.ErrorIs(t, err, structure.ErrDocumentUnreadable)
			assert.Equal(t, structure.StateFailed, result.State)
			assert.Nil(t, result.Structure)
		})
	}
}

func TestAnalyzer_CustomLocatorRange(t *testing.T) {
	texts := []string{
		"1 CÂMERA DOME IP Unidade 4 R$ 10,00",
		specPageText,
	}
	loc := structure.NewSpecLocator()
	loc.ScanStart = 1
	loc.ScanEnd = 10
	a := structure.NewAnalyzer(structure.WithSpecLocator(loc), structure.WithItemExtractor(structure.NewItemExtractor(1)))

	result, err := a.Analyze(context.Background(), "curto.pdf", &fakeSource{pages: texts})
	require.NoError(t, err)
	require.Len(t, result.Structure.Items, 1)
	assert.Equal(t, []int{2}, result.Structure.Items[0].SpecPages.Pages)
	assert.Equal(t, 6, result.Structure.Items[0].EstimatedRequirements)
	assert.Empty(t, result.Diagnostics)
}

// cancelOn cancels a context when a log record matches.
type cancelOn struct {
	match  func(r slog.Record) bool
	cancel context.CancelFunc
}

func (h *cancelOn) Enabled(context.Context, slog.Level) bool { return true }

func (h *cancelOn) Handle(_ context.Context, r slog.Record) error {
	if h.match(r) {
		h.cancel()
	}
	return nil
}

func (h *cancelOn) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *cancelOn) WithGroup(string) slog.Handler      { return h }

func hasAttr(r slog.Record, key, value string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key && a.Value.String() == value {
			found = true
			return false
		}
		return true
	})
	return found
}

func twoItemDocument() *fakeSource {
	texts := blankPages(30)
	texts[0] = "1 CÂMERA DOME Unidade 4 R$ 10,00\n2 SENSOR INFRAVERMELHO Unidade 10 R$ 5,00"
	texts[21] = specPageText
	texts[25] = "SENSOR INFRAVERMELHO\n1.1.1 um\n1.1.2 dois\n1.1.3 três\n1.1.4 quatro"
	return &fakeSource{pages: texts}
}

func TestAnalyzer_InterruptedKeepsOnlyEnrichedItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := &cancelOn{cancel: cancel, match: func(r slog.Record) bool { return hasAttr(r, "item_id", "2") }}
	a := structure.NewAnalyzer(structure.WithLogger(slog.New(h)), structure.WithClock(fixedClock))

	result, err := a.Analyze(ctx, "edital.pdf", twoItemDocument())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, structure.StateItemsExtracted, result.State)

	s := result.Structure
	require.NotNil(t, s)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.TotalItems)
	assert.Equal(t, "1", s.Items[0].ItemID)
	assert.Equal(t, []int{22}, s.Items[0].SpecPages.Pages)
	assert.Greater(t, s.Items[0].EstimatedRequirements, 0)
	require.NoError(t, s.Validate())

	var buf bytes.Buffer
	require.NoError(t, structure.WriteStructure(&buf, s))
	assert.NotContains(t, buf.String(), `"spec_pages": []`)
}

func TestAnalyzer_InterruptedDuringExtraction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := &cancelOn{cancel: cancel, match: func(r slog.Record) bool { return r.Message == "pages loaded" }}
	a := structure.NewAnalyzer(structure.WithLogger(slog.New(h)))

	result, err := a.Analyze(ctx, "edital.pdf", twoItemDocument())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result.Structure)
	assert.Empty(t, result.Structure.Items)
	assert.Equal(t, 0, result.Structure.TotalItems)
	require.NoError(t, result.Structure.Validate())
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

func TestParseSelection(t *testing.T) {
	tests := []struct {
		expr    string
		max     int
		want    []int
		wantErr bool
	}{
		{expr: "1,3-5,7", max: 10, want: []int{1, 3, 4, 5, 7}},
		{expr: " 5 , 1-2 , 2 ", max: 10, want: []int{1, 2, 5}},
		{expr: "3-3", max: 3, want: []int{3}},
		{expr: "   ", max: 10, want: []int{}},
		{expr: "11", max: 10, wantErr: true},
		{expr: "0", max: 10, wantErr: true},
		{expr: "5-3", max: 10, wantErr: true},
		{expr: "8-12", max: 10, wantErr: true},
		{expr: "1,,2", max: 10, wantErr: true},
		{expr: "a-b", max: 10, wantErr: true},
		{expr: "-3", max: 10, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := structure.ParseSelection(tt.expr, tt.max)
			if tt.wantErr {
				require.ErrorIs(t, err, structure.ErrInvalidSelection)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect(t *testing.T) {
	s := &structure.EditalStructure{Items: []structure.Item{
		{ItemID: "10", Description: "CÂMERA DOME"},
		{ItemID: "20", Description: "SENSOR PIR"},
		{ItemID: "30", Description: "SWITCH POE"},
	}}
	sel, err := structure.Select(s, "3,1")
	require.NoError(t, err)
	assert.Equal(t, 3, sel.TotalItemsInDocument)
	assert.Equal(t, []int{1, 3}, sel.SelectedIndices)
	require.Len(t, sel.SelectedItems, 2)
	assert.Equal(t, "10", sel.SelectedItems[0].ItemID)
	assert.Equal(t, "30", sel.SelectedItems[1].ItemID)

	_, err = structure.Select(s, "4")
	require.ErrorIs(t, err, structure.ErrInvalidSelection)
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func sampleStructure() *structure.EditalStructure {
	return &structure.EditalStructure{
		DocumentPath: "edital.pdf",
		AnalyzedAt:   fixedClock(),
		TotalPages:   40,
		TotalItems:   2,
		Items: []structure.Item{
			{ItemID: "1", Description: "CÂMERA DOME", Unit: structure.UnitUnidade, Quantity: 246, FoundOnPage: 3,
				SpecPages: structure.SpecPages{Pages: []int{22, 23}}, EstimatedRequirements: 14},
			{ItemID: "2", Description: "INSTALAÇÃO DO SISTEMA", Unit: structure.UnitServico, Quantity: 1, FoundOnPage: 3,
				SpecPages: structure.UnknownSpecPages, EstimatedRequirements: 8},
		},
	}
}

func TestWriteReadStructure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, structure.WriteStructure(&buf, sampleStructure()))
	assert.Contains(t, buf.String(), `"spec_pages": "unknown"`)
	assert.Contains(t, buf.String(), `"spec_pages": [`)

	got, err := structure.ReadStructure(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleStructure(), got)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *structure.EditalStructure)
	}{
		{name: "total_items mismatch", mutate: func(s *structure.EditalStructure) { s.TotalItems = 3 }},
		{name: "unknown unit", mutate: func(s *structure.EditalStructure) { s.Items[0].Unit = "Caixa" }},
		{name: "page zero", mutate: func(s *structure.EditalStructure) { s.Items[0].FoundOnPage = 0 }},
		{name: "zero quantity", mutate: func(s *structure.EditalStructure) { s.Items[1].Quantity = 0 }},
		{name: "empty spec pages", mutate: func(s *structure.EditalStructure) { s.Items[0].SpecPages = structure.SpecPages{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleStructure()
			tt.mutate(s)
			require.ErrorIs(t, s.Validate(), structure.ErrSchemaViolation)
		})
	}
}

func TestReadStructure_RejectsExtraFields(t *testing.T) {
	doc := `{"document_path":"a","analyzed_at":"2026-01-01T00:00:00Z","total_pages":1,"total_items":0,"items":[],"surprise":true}`
	_, err := structure.ReadStructure(strings.NewReader(doc))
	require.ErrorIs(t, err, structure.ErrSchemaViolation)
}

func TestSpecPagesJSON(t *testing.T) {
	b, err := json.Marshal(structure.SpecPages{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	var sp structure.SpecPages
	require.NoError(t, json.Unmarshal([]byte(`"unknown"`), &sp))
	assert.True(t, sp.Unknown)
	require.Error(t, json.Unmarshal([]byte(`"maybe"`), &sp))
}
