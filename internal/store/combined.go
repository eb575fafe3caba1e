package store

// CombinedStore chains several FileStores, consuming and finalising them
// in declared order, matching original_source/storage.rs's
// CombinedStorage exactly: weights are dispatched to the current store
// until it is exhausted, then the next store in the slice takes over.
type CombinedStore struct {
	stores  []*FileStore
	current int
}

// NewCombinedStore combines stores, to be consumed in the given order.
func NewCombinedStore(stores []*FileStore) *CombinedStore {
	return &CombinedStore{stores: stores}
}

// Rewind resets every store up to and including the current one, then
// resets the cursor to the first store.
func (c *CombinedStore) Rewind() error {
	for i := 0; i <= c.current && i < len(c.stores); i++ {
		if err := c.stores[i].Rewind(); err != nil {
			return err
		}
	}
	c.current = 0
	return nil
}

// UpdateNextWeights dispatches to the current store, advancing to the
// next store in declared order once the current one is exhausted.
func (c *CombinedStore) UpdateNextWeights(weights []float64) (bool, error) {
	for c.current < len(c.stores) {
		ok, err := c.stores[c.current].UpdateNextWeights(weights)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if err := c.stores[c.current].FinishWeightUpdate(); err != nil {
			return false, err
		}
		c.current++
	}
	return false, nil
}

// UpdateAllWeights rewinds and applies weights across all stores in
// declared order, returning the total number of records updated.
func (c *CombinedStore) UpdateAllWeights(weights [][]float64) (int, error) {
	if err := c.Rewind(); err != nil {
		return 0, err
	}
	n := 0
	for n < len(weights) {
		ok, err := c.UpdateNextWeights(weights[n])
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
	}
	return n, nil
}

// FinishWeightUpdate finalises every store that has not already been
// finalised by UpdateNextWeights's exhaustion handling.
func (c *CombinedStore) FinishWeightUpdate() error {
	for _, s := range c.stores {
		if err := s.FinishWeightUpdate(); err != nil {
			return err
		}
	}
	return nil
}
