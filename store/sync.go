//go:build !tinygo

package store

import (
	sync "github.com/sasha-s/go-deadlock"
)

type mutex struct {
	sync.Mutex
}
