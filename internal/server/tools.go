package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// layoutProperties describes the sheet geometry arguments accepted by every
// exam-aware tool. Omitted values come from the server's exam definition.
func layoutProperties() map[string]interface{} {
	return map[string]interface{}{
		"question_count": map[string]interface{}{
			"type":        "integer",
			"description": "Number of questions (table columns). Default 10",
			"minimum":     1,
		},
		"choices_per_question": map[string]interface{}{
			"type":        "integer",
			"description": "Number of choices per question (table rows). Default 4",
			"minimum":     1,
		},
		"sheet_width": map[string]interface{}{
			"type":        "integer",
			"description": "Template sheet width in pixels. Default 800",
		},
		"sheet_height": map[string]interface{}{
			"type":        "integer",
			"description": "Template sheet height in pixels. Default 1000",
		},
		"margin": map[string]interface{}{
			"type":        "integer",
			"description": "Distance from the sheet edge to each corner marker. Default 40",
		},
		"marker_size": map[string]interface{}{
			"type":        "integer",
			"description": "Side length of each square corner marker. Default 40",
		},
	}
}

// readingProperties describes the pipeline tuning arguments.
func readingProperties() map[string]interface{} {
	return map[string]interface{}{
		"fill_ratio_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Ink fraction at which a cell counts as marked. Default 0.15",
		},
		"illumination": map[string]interface{}{
			"type":        "boolean",
			"description": "Normalize shadows and uneven lighting before reading. Default true",
		},
		"adaptive": map[string]interface{}{
			"type":        "boolean",
			"description": "Use adaptive instead of fixed thresholding. Default false",
		},
		"correspondence": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"greedy", "optimal"},
			"description": "How marker candidates are matched to corners. Default greedy",
		},
		"min_marker_area": map[string]interface{}{
			"type":        "integer",
			"description": "Nominal marker area in capture pixels. Default 2000",
		},
	}
}

// schema merges property sets into an object schema.
func schema(required []string, sets ...map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{}
	for _, set := range sets {
		for k, v := range set {
			props[k] = v
		}
	}
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var pathProperty = map[string]interface{}{
	"path": map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the captured sheet image",
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Layout
		{
			Name:        "omr_layout",
			Description: "Compute the answer-cell rectangles and corner marker centers of an exam sheet in template coordinates.",
			InputSchema: schema(nil, layoutProperties()),
		},
		{
			Name:        "omr_generate_sheet",
			Description: "Render a printable answer sheet with corner markers, title, name/code boxes and the answer table. Returns base64 PNG, or writes it to output_path.",
			InputSchema: schema(nil, layoutProperties(), map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Title printed at the top. Defaults to the locale's title",
				},
				"locale": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"en", "es"},
					"description": "Label language. Default en",
				},
				"output_path": map[string]interface{}{
					"type":        "string",
					"description": "Optional path to write the PNG to instead of returning it",
				},
			}),
		},

		// Reading
		{
			Name:        "omr_find_markers",
			Description: "Find corner marker candidates in a captured sheet and show which candidate would be matched to each corner.",
			InputSchema: schema([]string{"path"}, pathProperty, layoutProperties(), map[string]interface{}{
				"min_area": map[string]interface{}{
					"type":        "integer",
					"description": "Nominal marker area in capture pixels. Default 2000",
				},
				"correspondence": readingProperties()["correspondence"],
			}),
		},
		{
			Name:        "omr_process_sheet",
			Description: "Align a captured answer sheet and read one answer per question. A sheet that cannot be aligned returns success=false with no answers; blank or over-marked questions return null.",
			InputSchema: schema([]string{"path"}, pathProperty, layoutProperties(), readingProperties(), map[string]interface{}{
				"include_images": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the aligned sheet, the normalized capture and an audit overlay as base64 PNG. Default false",
				},
			}),
		},
		{
			Name:        "omr_process_batch",
			Description: "Read many captured sheets in parallel. Results keep the order of paths; a failed sheet does not affect the others.",
			InputSchema: schema([]string{"paths"}, layoutProperties(), readingProperties(), map[string]interface{}{
				"paths": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Absolute paths to the captured sheets",
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum sheets processed at once. Default: number of CPUs",
				},
			}),
		},
		{
			Name:        "omr_inspect_question",
			Description: "Read a sheet and return the aligned crop of one question's column with its per-choice fill ratios, for reviewing a doubtful answer.",
			InputSchema: schema([]string{"path", "question"}, pathProperty, layoutProperties(), readingProperties(), map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based question index",
					"minimum":     0,
				},
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor for the crop. Default 2.0",
					"default":     2.0,
				},
			}),
		},

		// Diagnostics
		{
			Name:        "omr_capabilities",
			Description: "Report the marker detection backend and the supported reading options.",
			InputSchema: schema(nil),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
