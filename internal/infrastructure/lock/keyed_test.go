package lock

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	key := uuid.New()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(key)
			counter++
			km.Unlock(key)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	a := uuid.New()
	b := uuid.New()

	km.Lock(a)

	done := make(chan struct{})
	go func() {
		km.Lock(b)
		km.Unlock(b)
		close(done)
	}()

	<-done // would deadlock if b waited on a
	km.Unlock(a)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_EntriesAreDropped(t *testing.T) {
	km := NewKeyedMutex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		key := uuid.New()
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(key)
			km.Unlock(key)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_UnlockUnheldPanics(t *testing.T) {
	km := NewKeyedMutex()
	assert.Panics(t, func() {
		km.Unlock(uuid.New())
	})
}
