//go:build tinygo

package store

import (
	"sync"
)

type mutex struct {
	sync.Mutex
}
