package shortener

import (
	"context"
	"fmt"
	"strings"

	"github.com/serroba/shortlinks/internal/expiration"
	"go.uber.org/zap"
)

// IndexRepair summarises a RepairIndex pass.
type IndexRepair struct {
	Restored int64 // live codes added back to their owner's index
	Pruned   int64 // index entries removed because their record is gone
}

// ReclaimExpired drops expired links from their owners' indexes and returns how many
// entries it removed. The expired records stay in place; Resolve and GetOwner already
// treat them as gone. Running it again, or concurrently, removes nothing twice.
func (r *Registry) ReclaimExpired(ctx context.Context) (int64, error) {
	keys, err := r.store.Keys(ctx, allLinksPattern())
	if err != nil {
		return 0, fmt.Errorf("scan links: %w", err)
	}

	now := r.now()

	var reclaimed int64

	for _, key := range keys {
		link, err := r.readKey(ctx, key)
		if err != nil {
			return reclaimed, err
		}

		if link == nil || !expiration.IsExpired(link.ExpiresAt, now) {
			continue
		}

		n, err := r.store.SRem(ctx, ownerLinksKey(link.OwnerID), string(link.Code))
		if err != nil {
			return reclaimed, fmt.Errorf("unindex expired %s: %w", link.Code, err)
		}

		reclaimed += n
	}

	if reclaimed > 0 {
		r.logger.Info("reclaimed expired links", zap.Int64("count", reclaimed))
	}

	return reclaimed, nil
}

// RepairIndex reconciles owner indexes with link records after interrupted
// create/delete pairs: live records missing from their owner's index are added back
// and index entries without a record are removed.
//
// A delete racing with the pass can have its entry restored; the next pass prunes it.
func (r *Registry) RepairIndex(ctx context.Context) (IndexRepair, error) {
	var report IndexRepair

	keys, err := r.store.Keys(ctx, allLinksPattern())
	if err != nil {
		return report, fmt.Errorf("scan links: %w", err)
	}

	now := r.now()

	for _, key := range keys {
		link, err := r.readKey(ctx, key)
		if err != nil {
			return report, err
		}

		if link == nil || expiration.IsExpired(link.ExpiresAt, now) {
			continue
		}

		n, err := r.store.SAdd(ctx, ownerLinksKey(link.OwnerID), string(link.Code))
		if err != nil {
			return report, fmt.Errorf("restore index for %s: %w", link.Code, err)
		}

		if n > 0 {
			r.logger.Warn("restored missing index entry",
				zap.String("code", string(link.Code)),
				zap.String("owner", link.OwnerID),
			)
		}

		report.Restored += n
	}

	indexes, err := r.store.Keys(ctx, userKeyPrefix+"*"+userLinkSuffix)
	if err != nil {
		return report, fmt.Errorf("scan indexes: %w", err)
	}

	for _, index := range indexes {
		ownerID := strings.TrimSuffix(strings.TrimPrefix(index, userKeyPrefix), userLinkSuffix)

		pruned, err := r.pruneIndex(ctx, ownerID)
		if err != nil {
			return report, err
		}

		report.Pruned += pruned
	}

	return report, nil
}

func (r *Registry) pruneIndex(ctx context.Context, ownerID string) (int64, error) {
	codes, err := r.store.SMembers(ctx, ownerLinksKey(ownerID))
	if err != nil {
		return 0, fmt.Errorf("read index of %s: %w", ownerID, err)
	}

	var pruned int64

	for _, c := range codes {
		exists, err := r.store.Exists(ctx, linkKey(ownerID, Code(c)))
		if err != nil {
			return pruned, fmt.Errorf("check link %s: %w", c, err)
		}

		if exists {
			continue
		}

		n, err := r.store.SRem(ctx, ownerLinksKey(ownerID), c)
		if err != nil {
			return pruned, fmt.Errorf("prune %s: %w", c, err)
		}

		pruned += n
	}

	return pruned, nil
}

// readKey loads the record at a link key, or nil if the key is not a link or is gone.
func (r *Registry) readKey(ctx context.Context, key string) (*Link, error) {
	ownerID, code, ok := splitLinkKey(key)
	if !ok {
		return nil, nil
	}

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	link, ok := decodeLink(ownerID, code, fields)
	if !ok {
		return nil, nil
	}

	return link, nil
}
