// Package sheet renders printable answer sheets and audit overlays.
//
// Render draws a blank sheet from a layout.Layout: a centered title, name and
// code boxes, four nested finder markers centered on the layout's expected
// corners, and the answer table with one column per question and one row per
// choice. Because every coordinate comes from the same layout computation the
// reader uses, the cells printed here are exactly the cells classified later.
//
// Printed strings come from a Locale table (English, Spanish). Choice rows
// are labelled A through Z, then by number.
//
// Overlay draws a classification result over an aligned sheet so a reviewer
// can see which cells were accepted, which questions were over-marked and
// which were left blank.
package sheet
