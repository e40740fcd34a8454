// Package layout computes the pixel-exact geometry of a printable answer sheet.
//
// The same Spec always yields the same cell rectangles and marker corners.
// Sheet generation (package sheet) and sheet reading (package pipeline) both
// call Compute, so a sheet printed from a Spec can be read back with that Spec
// without any coordinate drift.
//
// # Sheet Anatomy
//
// From top to bottom a sheet holds:
//
//  1. A title band of TitleTextHeight + 15 pixels below the margin
//  2. An identification box band (name and code) of IDBoxHeight pixels plus a 20px gap
//  3. The answer table: a header row of question numbers followed by one row
//     per choice, with a label column (A, B, C, ...) on the left
//
// Four square corner markers sit inside the margins and never overlap the table.
//
// # Rounding
//
// Every intermediate value is floored at exactly the point the reading side
// floors it. Column edges are computed independently per column from a
// fractional column width, never accumulated, so rounding error cannot grow
// across wide tables.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left of the sheet,
// X increasing rightward and Y increasing downward.
package layout
