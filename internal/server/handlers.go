package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/answer-sheet-omr/internal/alignment"
	"github.com/ironsheep/answer-sheet-omr/internal/config"
	"github.com/ironsheep/answer-sheet-omr/internal/detection"
	"github.com/ironsheep/answer-sheet-omr/internal/imaging"
	"github.com/ironsheep/answer-sheet-omr/internal/layout"
	"github.com/ironsheep/answer-sheet-omr/internal/marks"
	"github.com/ironsheep/answer-sheet-omr/internal/pipeline"
	"github.com/ironsheep/answer-sheet-omr/internal/sheet"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "omr_process_sheet").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A sheet that cannot be read is not a tool error: it is a result with
// success=false.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Overlays them on the server's exam definition and validates the result
//  3. Calls the layout/sheet/detection/pipeline function
//  4. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Layout
	case "omr_layout":
		return s.handleLayout(args)
	case "omr_generate_sheet":
		return s.handleGenerateSheet(args)

	// Reading
	case "omr_find_markers":
		return s.handleFindMarkers(args)
	case "omr_process_sheet":
		return s.handleProcessSheet(args)
	case "omr_process_batch":
		return s.handleProcessBatch(args)
	case "omr_inspect_question":
		return s.handleInspectQuestion(args)

	// Diagnostics
	case "omr_capabilities":
		return pipeline.Capabilities(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// examArgs are the exam overrides shared by every exam-aware tool. Nil
// fields keep the server's exam definition.
type examArgs struct {
	QuestionCount      *int     `json:"question_count"`
	ChoicesPerQuestion *int     `json:"choices_per_question"`
	SheetWidth         *int     `json:"sheet_width"`
	SheetHeight        *int     `json:"sheet_height"`
	Margin             *int     `json:"margin"`
	MarkerSize         *int     `json:"marker_size"`
	FillRatioThreshold *float64 `json:"fill_ratio_threshold"`
	Illumination       *bool    `json:"illumination"`
	Adaptive           *bool    `json:"adaptive"`
	Correspondence     *string  `json:"correspondence"`
	MinMarkerArea      *int     `json:"min_marker_area"`
}

func (a examArgs) apply(base config.Exam) (config.Exam, error) {
	e := base
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&e.QuestionCount, a.QuestionCount)
	setInt(&e.ChoicesPerQuestion, a.ChoicesPerQuestion)
	setInt(&e.SheetWidth, a.SheetWidth)
	setInt(&e.SheetHeight, a.SheetHeight)
	setInt(&e.Margin, a.Margin)
	setInt(&e.MarkerSize, a.MarkerSize)
	setInt(&e.MinMarkerArea, a.MinMarkerArea)
	if a.FillRatioThreshold != nil {
		e.FillRatioThreshold = *a.FillRatioThreshold
	}
	if a.Illumination != nil {
		e.ApplyIllumination = *a.Illumination
	}
	if a.Adaptive != nil {
		e.AdaptiveThreshold = *a.Adaptive
	}
	if a.Correspondence != nil {
		e.Correspondence = *a.Correspondence
	}
	if err := e.Validate(); err != nil {
		return config.Exam{}, err
	}
	return e, nil
}

// processor builds a pipeline processor for the exam.
func (s *Server) processor(e config.Exam, overlay bool) (*pipeline.Processor, error) {
	opts, err := e.PipelineOptions(s.log)
	if err != nil {
		return nil, err
	}
	opts.Overlay = overlay
	return pipeline.NewProcessor(opts)
}

// === Layout Handlers ===

func (s *Server) handleLayout(args json.RawMessage) (interface{}, error) {
	var a examArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := a.apply(s.exam)
	if err != nil {
		return nil, err
	}
	return layout.Compute(e.Spec())
}

type generateSheetArgs struct {
	examArgs
	Title      *string `json:"title"`
	Locale     *string `json:"locale"`
	OutputPath string  `json:"output_path"`
}

type generateSheetResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Locale      string `json:"locale"`
	OutputPath  string `json:"output_path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleGenerateSheet(args json.RawMessage) (interface{}, error) {
	var a generateSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := a.apply(s.exam)
	if err != nil {
		return nil, err
	}
	if a.Locale != nil {
		e.Locale = *a.Locale
		// A locale switch without a title prints that locale's title.
		if a.Title == nil {
			e.Title = ""
		}
	}
	if a.Title != nil {
		e.Title = *a.Title
	}

	l, err := layout.Compute(e.Spec())
	if err != nil {
		return nil, err
	}
	opts, err := e.SheetOptions()
	if err != nil {
		return nil, err
	}
	img := sheet.Render(l, opts)

	res := &generateSheetResult{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Locale:   opts.Locale.Code,
		MimeType: "image/png",
	}
	if a.OutputPath != "" {
		if err := imaging.SavePNG(img, a.OutputPath); err != nil {
			return nil, err
		}
		res.OutputPath = a.OutputPath
		return res, nil
	}
	if res.ImageBase64, err = imaging.EncodePNGBase64(img); err != nil {
		return nil, err
	}
	return res, nil
}

// === Reading Handlers ===

type findMarkersArgs struct {
	examArgs
	Path    string `json:"path"`
	MinArea *int   `json:"min_area"`
}

type findMarkersResult struct {
	Backend         string                `json:"backend"`
	Width           int                   `json:"width"`
	Height          int                   `json:"height"`
	Count           int                   `json:"count"`
	Markers         []detection.Marker    `json:"markers"`
	Expected        layout.Corners        `json:"expected_corners"`
	Assignment      *alignment.Assignment `json:"assignment,omitempty"`
	AssignmentError string                `json:"assignment_error,omitempty"`
}

func (s *Server) handleFindMarkers(args json.RawMessage) (interface{}, error) {
	var a findMarkersArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MinArea != nil {
		a.MinMarkerArea = a.MinArea
	}
	e, err := a.apply(s.exam)
	if err != nil {
		return nil, err
	}
	strategy, err := alignment.ParseStrategy(e.Correspondence)
	if err != nil {
		return nil, err
	}
	l, err := layout.Compute(e.Spec())
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	finder := detection.Default()
	found, err := finder.FindMarkers(img, e.MinMarkerArea)
	if err != nil {
		return nil, err
	}

	res := &findMarkersResult{
		Backend:  finder.Name(),
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Count:    found.Count,
		Markers:  found.Markers,
		Expected: alignment.ExpectedCaptureCorners(img.Bounds(), l),
	}
	assignment, err := alignment.ResolveWith(strategy, found.Points(), res.Expected)
	if err != nil {
		res.AssignmentError = err.Error()
	} else {
		res.Assignment = assignment
	}
	return res, nil
}

type processSheetArgs struct {
	examArgs
	Path          string `json:"path"`
	IncludeImages bool   `json:"include_images"`
}

type processSheetResult struct {
	*pipeline.Result
	CanonicalImage  string `json:"canonical_image,omitempty"`
	NormalizedImage string `json:"normalized_image,omitempty"`
	OverlayImage    string `json:"overlay_image,omitempty"`
}

func (s *Server) handleProcessSheet(args json.RawMessage) (interface{}, error) {
	var a processSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := a.apply(s.exam)
	if err != nil {
		return nil, err
	}
	p, err := s.processor(e, a.IncludeImages)
	if err != nil {
		return nil, err
	}

	r := p.ProcessFile(a.Path)
	res := &processSheetResult{Result: r}
	if !a.IncludeImages {
		return res, nil
	}
	if r.CanonicalImage != nil {
		if res.CanonicalImage, err = imaging.EncodePNGBase64(r.CanonicalImage); err != nil {
			return nil, err
		}
	}
	if r.NormalizedImage != nil {
		if res.NormalizedImage, err = imaging.EncodePNGBase64(r.NormalizedImage); err != nil {
			return nil, err
		}
	}
	if r.OverlayImage != nil {
		if res.OverlayImage, err = imaging.EncodePNGBase64(r.OverlayImage); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type processBatchArgs struct {
	examArgs
	Paths   []string `json:"paths"`
	Workers *int     `json:"workers"`
}

type processBatchResult struct {
	Results   []*pipeline.Result `json:"results"`
	Processed int                `json:"processed"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

func (s *Server) handleProcessBatch(args json.RawMessage) (interface{}, error) {
	var a processBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must list at least one image")
	}
	e, err := a.apply(s.exam)
	if err != nil {
		return nil, err
	}
	workers := e.Workers
	if a.Workers != nil {
		workers = *a.Workers
	}
	p, err := s.processor(e, false)
	if err != nil {
		return nil, err
	}

	results, err := p.ProcessBatch(context.Background(), a.Paths, workers)
	if err != nil {
		return nil, err
	}
	res := &processBatchResult{Results: results}
	for _, r := range results {
		if r == nil {
			continue
		}
		res.Processed++
		if r.Success {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

type inspectQuestionArgs struct {
	examArgs
	Path     string  `json:"path"`
	Question int     `json:"question"`
	Scale    float64 `json:"scale"`
}

type inspectQuestionResult struct {
	Success  bool                `json:"success"`
	Error    string              `json:"error,omitempty"`
	Question *marks.Question     `json:"question,omitempty"`
	Cells    []layout.CellRect   `json:"cells,omitempty"`
	Crop     *imaging.CropResult `json:"crop,omitempty"`
}

func (s *Server) handleInspectQuestion(args json.RawMessage) (interface{}, error) {
	var a inspectQuestionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 2.0
	}
	e, err := a.apply(s.exam)
	if err != nil {
		return nil, err
	}
	p, err := s.processor(e, false)
	if err != nil {
		return nil, err
	}
	cells := p.Layout().Cells
	if a.Question < 0 || a.Question >= len(cells) {
		return nil, fmt.Errorf("question %d out of range [0, %d)", a.Question, len(cells))
	}

	r := p.ProcessFile(a.Path)
	if !r.Success {
		return &inspectQuestionResult{Success: false, Error: r.Error}, nil
	}

	column := cells[a.Question]
	region := column[0].Rect().Union(column[len(column)-1].Rect()).Inset(-layout.CellPadding)
	crop, err := imaging.Crop(r.CanonicalImage, region, a.Scale)
	if err != nil {
		return nil, err
	}
	q := r.Questions[a.Question]
	return &inspectQuestionResult{
		Success:  true,
		Question: &q,
		Cells:    column,
		Crop:     crop,
	}, nil
}
