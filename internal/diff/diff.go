// Package diff computes which pages of a thread can hold posts not yet seen.
package diff

import "nga_reminder/internal/model"

// PageRange is an inclusive range of 1-based page numbers.
type PageRange struct {
	Start int
	End   int
}

// Pages expands the range into individual page numbers.
func (r PageRange) Pages() []int {
	if r.End < r.Start {
		return nil
	}
	pages := make([]int, 0, r.End-r.Start+1)
	for p := r.Start; p <= r.End; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Contains reports whether page lies within the range.
func (r PageRange) Contains(page int) bool {
	return page >= r.Start && page <= r.End
}

// ComputePageRange returns the minimal page range that can contain posts
// beyond priorCount. The boolean is false when nothing new can exist.
//
// Pagination is append-only with a fixed page size, so posts 1..priorCount
// fill pages 1..priorCount/postsPerPage completely and any unseen post lives
// at or after the page that follows them. Callers must still filter fetched
// posts by sequence number because the first page of the range can mix
// seen and unseen posts.
func ComputePageRange(priorCount, postsPerPage, currentCount, currentTotalPages int) (PageRange, bool) {
	if currentCount <= priorCount {
		return PageRange{}, false
	}
	if postsPerPage <= 0 {
		postsPerPage = model.DefaultPostsPerPage
	}
	if priorCount < 0 {
		priorCount = 0
	}

	start := priorCount/postsPerPage + 1
	end := currentTotalPages
	if end < start {
		end = start
	}
	return PageRange{Start: start, End: end}, true
}

// PageOf returns the page that holds the given 1-based sequence number.
func PageOf(sequenceNumber, postsPerPage int) int {
	if postsPerPage <= 0 {
		postsPerPage = model.DefaultPostsPerPage
	}
	if sequenceNumber <= 0 {
		return 1
	}
	return (sequenceNumber-1)/postsPerPage + 1
}
