package reports

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/models"
)

func statementCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_STATEMENT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func statementCacheTTL() time.Duration {
	// Env: STATEMENT_CACHE_TTL_SECONDS (default 300s)
	ttl := 300
	if v := strings.TrimSpace(os.Getenv("STATEMENT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func statementCacheKey(clientId int, periodId int, kind models.StatementKind) string {
	return fmt.Sprintf("estado:%d:%d:%s", clientId, periodId, kind)
}

// StatementCache is the assembled-statement cache boundary. Injected into the
// Assembler rather than reached as ambient state so tests can swap it out.
type StatementCache interface {
	Get(clientId int, periodId int, kind models.StatementKind) (*models.FinancialStatement, bool, error)
	Set(clientId int, periodId int, kind models.StatementKind, statement *models.FinancialStatement) error
	Remove(clientId int, periodId int, kind models.StatementKind) error
}

// RedisStatementCache caches statements in redis with a TTL. All operations
// degrade to no-ops when caching is disabled or redis is unavailable.
type RedisStatementCache struct{}

func NewRedisStatementCache() *RedisStatementCache {
	return &RedisStatementCache{}
}

func (c *RedisStatementCache) Get(clientId int, periodId int, kind models.StatementKind) (*models.FinancialStatement, bool, error) {
	if !statementCacheEnabled() {
		return nil, false, nil
	}
	var statement models.FinancialStatement
	found, err := config.GetRedisObject(statementCacheKey(clientId, periodId, kind), &statement)
	if err != nil || !found {
		return nil, false, err
	}
	return &statement, true, nil
}

func (c *RedisStatementCache) Set(clientId int, periodId int, kind models.StatementKind, statement *models.FinancialStatement) error {
	if !statementCacheEnabled() {
		return nil
	}
	return config.SetRedisObject(statementCacheKey(clientId, periodId, kind), statement, statementCacheTTL())
}

func (c *RedisStatementCache) Remove(clientId int, periodId int, kind models.StatementKind) error {
	if !statementCacheEnabled() {
		return nil
	}
	return config.RemoveRedisKey(statementCacheKey(clientId, periodId, kind))
}
