package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"askdb/ai"
	"askdb/cache"
	"askdb/models"
	"askdb/vector"
)

const dbMapCacheKey = "dbmap"

// SettingsService owns the database map: introspection enriched with
// per-table AI summaries, cached between requests, and the indexing job
// that pushes table summaries into the vector index.
type SettingsService struct {
	connector *MssqlConnector
	chat      ai.Provider
	embed     ai.Provider
	vec       *vector.Client
	cache     *cache.Cache
}

var _ DbMapProvider = (*SettingsService)(nil)

func NewSettingsService(connector *MssqlConnector, chat, embed ai.Provider, vec *vector.Client, c *cache.Cache) *SettingsService {
	return &SettingsService{connector: connector, chat: chat, embed: embed, vec: vec, cache: c}
}

// GetDbMapFast returns the database map with stored summaries attached.
// The map is cached; reindexing invalidates it.
func (s *SettingsService) GetDbMapFast(ctx context.Context) (*models.DatabaseMap, error) {
	if cached, found := s.cache.Get(dbMapCacheKey); found {
		return cached.(*models.DatabaseMap), nil
	}

	dbMap, err := s.connector.GetDbMap(ctx)
	if err != nil {
		return nil, err
	}

	for i := range dbMap.Tables {
		rawJSON, summary, found, err := s.connector.GetTableSummary(ctx, dbMap.Tables[i].Name)
		if err != nil {
			log.Printf("[SETTINGS] summary lookup failed for %s: %v", dbMap.Tables[i].Name, err)
			continue
		}
		if found {
			dbMap.Tables[i].RawJSON = rawJSON
			dbMap.Tables[i].AISummary = summary
		}
	}

	s.cache.SetDefault(dbMapCacheKey, dbMap)
	return dbMap, nil
}

// SummaryAndIndexDb builds (or with force rebuilds) the AI summary of
// every table and upserts one table_summary point per table into the
// vector index. Point IDs are deterministic on db+schema+table so
// re-indexing overwrites instead of duplicating.
func (s *SettingsService) SummaryAndIndexDb(ctx context.Context, force bool) (*models.DatabaseMap, error) {
	if force {
		if err := s.connector.DropSummaryTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset summary table: %w", err)
		}
	}
	if err := s.connector.CreateSummaryTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create summary table: %w", err)
	}

	dbMap, err := s.connector.GetDbMap(ctx)
	if err != nil {
		return nil, err
	}

	collectionReady := false
	for i := range dbMap.Tables {
		table := &dbMap.Tables[i]

		rawJSON, summary, found, err := s.connector.GetTableSummary(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		if !found || force {
			data, err := json.Marshal(table)
			if err != nil {
				return nil, err
			}
			rawJSON = string(data)

			system, user := ai.BuildTableSummaryPrompt(rawJSON)
			summary, err = s.chat.Chat(ctx, system, user, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to summarize table %s: %w", table.Name, err)
			}
			if err := s.connector.SaveTableSummary(ctx, table.Name, rawJSON, summary); err != nil {
				return nil, fmt.Errorf("failed to save summary for %s: %w", table.Name, err)
			}
		}
		table.RawJSON = rawJSON
		table.AISummary = summary

		vec, err := s.embed.EmbedText(ctx, summary)
		if err != nil {
			return nil, fmt.Errorf("failed to embed summary for %s: %w", table.Name, err)
		}
		if !collectionReady {
			if err := s.vec.EnsureCollection(ctx, len(vec)); err != nil {
				return nil, fmt.Errorf("failed to ensure collection: %w", err)
			}
			collectionReady = true
		}

		point := vector.Point{
			ID:     vector.PointID(s.connector.DatabaseName(), table.Schema, table.Name),
			Vector: vec,
			Payload: map[string]interface{}{
				"db":     s.connector.DatabaseName(),
				"schema": table.Schema,
				"table":  table.Name,
				"kind":   "table_summary",
				"text":   summary,
				"json":   rawJSON,
			},
		}
		if err := s.vec.Upsert(ctx, []vector.Point{point}); err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", table.Name, err)
		}
		log.Printf("[SETTINGS] indexed %s.%s", table.Schema, table.Name)
	}

	s.cache.Delete(dbMapCacheKey)
	s.cache.SetDefault(dbMapCacheKey, dbMap)
	return dbMap, nil
}
