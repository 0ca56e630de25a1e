package listquery

// Meta is the pagination block of a list response
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func (m Meta) TotalPages() int {
	if m.Limit <= 0 {
		return 0
	}
	return int((m.Total + int64(m.Limit) - 1) / int64(m.Limit))
}

func (m Meta) HasNextPage() bool {
	return m.Page < m.TotalPages()
}

func (m Meta) HasPreviousPage() bool {
	return m.Page > 1
}

// Envelope is the result of List. Data is never nil.
type Envelope struct {
	Data []Row `json:"data"`
	Meta Meta  `json:"meta"`
}

type CursorMeta struct {
	Limit           int    `json:"limit"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	NextCursor      string `json:"nextCursor,omitempty"`
}

// CursorEnvelope is the result of ListAfter
type CursorEnvelope struct {
	Data []Row      `json:"data"`
	Meta CursorMeta `json:"meta"`
}
