// Package marks decides which answer cells of an aligned, binarized sheet are
// filled and turns them into per-question answers.
//
// A cell is filled when the fraction of its pixels darker than
// imaging.InkLevel reaches the fill-ratio threshold (DefaultFillRatio unless
// the caller chooses otherwise). Cells are clipped to the image before
// counting.
//
// A question has a valid answer only when exactly one of its cells is
// filled. Blank and over-marked questions both yield NoAnswer; Analyze
// reports which of the two occurred without changing the answer list.
package marks
