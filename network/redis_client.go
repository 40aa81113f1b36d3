package network

import (
	"fmt"

	"github.com/anecdotario/photo-services/models/service"
	"github.com/anecdotario/photo-services/util"
	"github.com/go-redis/redis/v7"
)

// PhotoRepo is the metadata repository the pipeline talks to. The
// production implementation is RedisClient below; tests use an
// in-memory fake.
type PhotoRepo interface {
	PhotoSave(record *service.PhotoRecord) error
	PhotoGet(photoID string) (*service.PhotoRecord, error)
	PhotoQueryByEntity(entityType, entityID, photoType string, limit int, newestFirst bool) ([]*service.PhotoRecord, error)
	PhotoDeactivate(photoID string) error
	PhotoDelete(photoID string) error
}

// RedisClient stores photo records as JSON values keyed by photo id,
// with two sorted-set indexes per entity (one per photo type, one
// across all types) scored by created_at so queries come back in time
// order without a scan.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

func recordKey(photoID string) string {
	return fmt.Sprintf("photo:%s", photoID)
}

func entityIndexKey(entityKey, photoType string) string {
	if photoType == "" {
		return fmt.Sprintf("photos:%s", entityKey)
	}
	return fmt.Sprintf("photos:%s:%s", entityKey, photoType)
}

// PhotoSave writes the record and both entity indexes. Saving an
// existing photo id overwrites the prior value; index scores keep the
// original created_at so re-saves don't reorder history.
func (c *RedisClient) PhotoSave(record *service.PhotoRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	jsonData, err := record.ToJSON()
	if err != nil {
		return err
	}
	if err = c.client.Set(recordKey(record.PhotoID), jsonData, 0).Err(); err != nil {
		return fmt.Errorf("PhotoSave (%s): %v", record.PhotoID, err)
	}
	score := float64(record.CreatedAt.UnixNano())
	member := &redis.Z{Score: score, Member: record.PhotoID}
	if err = c.client.ZAdd(entityIndexKey(record.EntityKey, record.PhotoType), member).Err(); err != nil {
		return fmt.Errorf("PhotoSave index (%s): %v", record.PhotoID, err)
	}
	if err = c.client.ZAdd(entityIndexKey(record.EntityKey, ""), member).Err(); err != nil {
		return fmt.Errorf("PhotoSave index (%s): %v", record.PhotoID, err)
	}
	return nil
}

func (c *RedisClient) PhotoGet(photoID string) (*service.PhotoRecord, error) {
	data, err := c.client.Get(recordKey(photoID)).Result()
	if err == redis.Nil {
		return nil, service.NewNotFoundError("record", "Photo not found: %s", photoID)
	}
	if err != nil {
		return nil, fmt.Errorf("PhotoGet (%s): %v", photoID, err)
	}
	return service.PhotoRecordFromJSON(data)
}

// PhotoQueryByEntity returns records for an entity, newest or oldest
// first by created_at. An empty photoType matches all photo types.
// A limit < 1 means no limit.
func (c *RedisClient) PhotoQueryByEntity(entityType, entityID, photoType string, limit int, newestFirst bool) ([]*service.PhotoRecord, error) {
	indexKey := entityIndexKey(util.EntityKey(entityType, entityID), photoType)
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	var ids []string
	var err error
	if newestFirst {
		ids, err = c.client.ZRevRange(indexKey, 0, stop).Result()
	} else {
		ids, err = c.client.ZRange(indexKey, 0, stop).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("PhotoQueryByEntity (%s): %v", indexKey, err)
	}
	records := make([]*service.PhotoRecord, 0, len(ids))
	for _, id := range ids {
		record, err := c.PhotoGet(id)
		if service.IsNotFound(err) {
			// Stale index entry. Heal it and move on.
			c.client.ZRem(indexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// PhotoDeactivate flips is_active to false and touches updated_at.
// The record stays in the store and its indexes.
func (c *RedisClient) PhotoDeactivate(photoID string) error {
	record, err := c.PhotoGet(photoID)
	if err != nil {
		return err
	}
	record.IsActive = false
	record.Touch()
	jsonData, err := record.ToJSON()
	if err != nil {
		return err
	}
	if err = c.client.Set(recordKey(photoID), jsonData, 0).Err(); err != nil {
		return fmt.Errorf("PhotoDeactivate (%s): %v", photoID, err)
	}
	return nil
}

// PhotoDelete hard-removes the record and its index entries.
func (c *RedisClient) PhotoDelete(photoID string) error {
	record, err := c.PhotoGet(photoID)
	if err != nil {
		return err
	}
	if err = c.client.Del(recordKey(photoID)).Err(); err != nil {
		return fmt.Errorf("PhotoDelete (%s): %v", photoID, err)
	}
	c.client.ZRem(entityIndexKey(record.EntityKey, record.PhotoType), photoID)
	c.client.ZRem(entityIndexKey(record.EntityKey, ""), photoID)
	return nil
}
