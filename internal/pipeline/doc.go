// Package pipeline turns a photographed answer sheet into one answer per
// question.
//
// A Processor is built once per exam layout and then applied to any number of
// captures, concurrently if desired:
//
//	p, err := pipeline.NewProcessor(pipeline.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	r := p.ProcessFile("scan.jpg")
//	if !r.Success {
//		log.Printf("sheet rejected at %s: %s", r.Stage, r.Error)
//	}
//
// Sheet-level failures (unreadable capture, fewer than four markers, a
// degenerate transform) are reported in the Result, never as a panic or a
// partial answer list. Question-level ambiguity is not a failure: blank and
// over-marked questions come back as marks.NoAnswer with a diagnostic status
// in Result.Questions.
//
// ProcessBatch fans a list of captures out over a bounded worker pool and
// keeps results in input order.
package pipeline
