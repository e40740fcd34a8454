// Package server implements the MCP (Model Context Protocol) server for
// answer-sheet reading.
//
// This package provides a JSON-RPC 2.0 server that exposes sheet generation,
// alignment and mark reading through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Layout:
//   - omr_layout: Cell rectangles and marker centers for an exam
//   - omr_generate_sheet: Render a printable sheet
//
// Reading:
//   - omr_find_markers: Marker candidates and the corner assignment
//   - omr_process_sheet: Align a capture and read its answers
//   - omr_process_batch: Read many captures in parallel
//   - omr_inspect_question: Aligned crop and fill ratios of one question
//
// Diagnostics:
//   - omr_capabilities: Marker backend and supported options
//
// Every exam-aware tool starts from the server's exam definition (see
// WithExam) and overrides whatever geometry or reading arguments the call
// supplies.
//
// # Error Handling
//
// Invalid arguments and unreadable files return JSON-RPC error -32000. A
// capture that loads but cannot be aligned is a normal result with
// success=false, an error message and the failed stage; its answers are null.
// Malformed request lines get a -32700 parse error.
//
// # Image Caching
//
// omr_find_markers caches decoded captures by path for repeated inspection.
// The processing tools always read from disk.
//
// # Usage
//
//	srv := server.New(server.WithExam(exam), server.WithLogger(logger))
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
