package test

import (
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewRedisDB returns an in-memory redis server and a client
// connected to it. Each call gets its own server so tests never
// share keys.
func NewRedisDB() (*miniredis.Miniredis, *redis.Client, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}

	db := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return mr, db, nil
}
