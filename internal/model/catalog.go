package model

// Catalog is the normalized taxonomy of valid makes and per-make models.
// Built once per process and treated as read-only after construction.
type Catalog struct {
	Makes        []string
	ModelsByMake map[string][]string
	Version      string
}

// Models returns the model list for a make, or nil if the make is unknown.
func (c *Catalog) Models(make string) []string {
	return c.ModelsByMake[make]
}

// NumModels returns the total number of (make, model) pairs in the catalog.
func (c *Catalog) NumModels() int {
	n := 0
	for _, models := range c.ModelsByMake {
		n += len(models)
	}
	return n
}
