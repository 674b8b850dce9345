package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/studyplan-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "plan", Password: "secret", Name: "studyplan", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=plan password=secret dbname=studyplan sslmode=disable", dsn)
}

func TestDSNPrefersURL(t *testing.T) {
	cfg := config.DatabaseConfig{URL: " postgres://plan@db/studyplan?sslmode=require ", Host: "ignored"}
	assert.Equal(t, "postgres://plan@db/studyplan?sslmode=require", DSN(cfg))
	assert.Equal(t, "DATABASE_URL", target(cfg))
	assert.Equal(t, "db:5432/studyplan", target(config.DatabaseConfig{Host: "db", Port: 5432, Name: "studyplan"}))
}
