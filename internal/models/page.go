package models

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// Pages returns how many pages of p.Size hold total items.
func (p Page) Pages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
