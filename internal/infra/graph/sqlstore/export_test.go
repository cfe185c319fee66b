package sqlstore

import "orthocore/internal/graph/core"

const DefaultPostgresDSN = defaultPostgresDSN

var RebindDollar = rebindDollar

func (s *Store) Rebind(query string) string { return s.rebind(query) }

func NewUnopened(driver core.Driver) *Store { return &Store{driver: driver} }
