package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_SetMarshalsReports(t *testing.T) {
	ctx := context.Background()
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	cache := NewRedisCache(redisClient)

	report := WeatherReport{Place: "Rosario, Santa Fe, Argentina", Lat: -32.95, Lon: -60.64}
	jsonData, err := json.Marshal(report)
	require.NoError(t, err)

	redisMock.ExpectSet("weather:rosario", jsonData, reportCacheTTL).SetVal("OK")

	err = cache.Set(ctx, "weather:rosario", report, reportCacheTTL)

	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestRedisCache_SetUnmarshalableValue(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	cache := NewRedisCache(redisClient)

	err := cache.Set(context.Background(), "weather:bad", make(chan int), time.Minute)

	require.Error(t, err)
	assert.IsType(t, &json.UnsupportedTypeError{}, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestRedisCache_Get(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	cache := NewRedisCache(redisClient)
	expected := `{"place":"Rosario, Santa Fe, Argentina"}`

	redisMock.ExpectGet("weather:rosario").SetVal(expected)

	value, err := cache.Get(context.Background(), "weather:rosario")

	require.NoError(t, err)
	assert.Equal(t, expected, value)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestRedisCache_GetMiss(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	cache := NewRedisCache(redisClient)

	redisMock.ExpectGet("weather:atlantis").SetErr(redis.Nil)

	_, err := cache.Get(context.Background(), "weather:atlantis")

	require.Error(t, err)
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestRedisCache_Flush(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	cache := NewRedisCache(redisClient)

	redisMock.ExpectFlushDB().SetVal("OK")

	require.NoError(t, cache.Flush(context.Background()))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestRedisCache_FlushError(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	cache := NewRedisCache(redisClient)

	redisMock.ExpectFlushDB().SetErr(errors.New("flush error"))

	err := cache.Flush(context.Background())

	require.Error(t, err)
	assert.EqualError(t, err, "flush error")
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
