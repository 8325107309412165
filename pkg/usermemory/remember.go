package usermemory

import (
	"strings"

	"github.com/kittclouds/usermemory/pkg/response"
)

// Remember implements the remember(args) operation (§4.6).
func Remember(st *Store, host Host, args map[string]any, rt Runtime) (map[string]any, error) {
	fact := normalizeText(argString(args, "fact"), MaxFactLen)
	if fact == "" {
		return nil, invalidArgument("fact must not be empty")
	}

	key := canonicalizeKey(argString(args, "key"))
	var inferredTags []string
	if key == "" {
		if slotKey, tags := inferSlotFromText(fact); slotKey != "" {
			key = slotKey
			inferredTags = tags
		}
	}

	tags := mergeTagLists(argStringSlice(args, "tags"), inferredTags, defaultTagsByKey[key])
	importance := clampImportance(argInt(args, "importance"))
	overwriteKey := argBool(args, "overwrite_key", true)

	entries := st.Load()
	now := nowUTCISO()

	idx := findByFactCI(entries, fact, rt.UserName)
	if idx < 0 && key != "" && overwriteKey {
		idx = findByKey(entries, key, rt.UserName)
	}

	var status string
	var result MemoryEntry
	if idx >= 0 {
		e := entries[idx]
		e.Fact = fact
		e.Importance = importance
		e.Tags = mergeTagLists(e.Tags, tags)
		if key != "" {
			e.Key = key
		}
		e.UpdatedAt = now
		if e.UserName == "" {
			e.UserName = rt.UserName
		}
		if e.ChatID == "" {
			e.ChatID = rt.ChatID
		}
		deriveEntry(&e)
		entries[idx] = e
		result = e
		status = "updated"
	} else {
		e := MemoryEntry{
			ID:         newMemoryID(),
			Key:        key,
			Fact:       fact,
			Tags:       tags,
			Importance: importance,
			CreatedAt:  now,
			UpdatedAt:  now,
			UserName:   rt.UserName,
			ChatID:     rt.ChatID,
		}
		deriveEntry(&e)
		entries = append(entries, e)
		result = e
		status = "saved"
	}

	st.Save(entries)

	return map[string]any{
		"status":         status,
		"memory":         response.ToMemory(toSourceEntry(result), false),
		"total_memories": len(entries),
		"request_id":     host.CreateRequestID(),
	}, nil
}

// findByFactCI finds the index of the first entry in the caller's
// identity scope whose fact matches f case-insensitively.
func findByFactCI(entries []MemoryEntry, f, runtimeUser string) int {
	lf := strings.ToLower(f)
	for i, e := range entries {
		if !matchesScope(e, runtimeUser, ScopeCurrentUser) {
			continue
		}
		if strings.ToLower(e.Fact) == lf {
			return i
		}
	}
	return -1
}

// findByKey finds the index of the first entry in the caller's identity
// scope whose canonical key equals key.
func findByKey(entries []MemoryEntry, key, runtimeUser string) int {
	for i, e := range entries {
		if !matchesScope(e, runtimeUser, ScopeCurrentUser) {
			continue
		}
		if e.Key == key {
			return i
		}
	}
	return -1
}

func toSourceEntry(e MemoryEntry) response.SourceEntry {
	return response.SourceEntry{
		ID: e.ID, Key: e.Key, Fact: e.Fact, Tags: e.Tags, Importance: e.Importance,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt, UserName: e.UserName, ChatID: e.ChatID,
	}
}
