package state

import "langteacher/types"

// FilterChatsByMode returns the chats with the given mode in their original
// order. The result is never nil.
func FilterChatsByMode(chats []types.Chat, mode types.ChatMode) []types.Chat {
	out := make([]types.Chat, 0, len(chats))
	for _, c := range chats {
		if c.Mode == mode {
			out = append(out, c)
		}
	}
	return out
}

// FilterCategoriesByType returns the categories of type t in their original
// order. The result is never nil.
func FilterCategoriesByType(categories []types.Category, t types.CategoryType) []types.Category {
	out := make([]types.Category, 0, len(categories))
	for _, c := range categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// FindChat returns a copy of the chat with the given id, or nil.
func FindChat(chats []types.Chat, id string) *types.Chat {
	if id == "" {
		return nil
	}
	for i := range chats {
		if chats[i].ID == id {
			c := chats[i]
			return &c
		}
	}
	return nil
}

// Append adds items to the end of a collection cell without touching the
// previously stored slice.
func Append[T any](c *Cell[[]T], items ...T) {
	c.Update(func(cur []T) []T {
		out := make([]T, 0, len(cur)+len(items))
		out = append(out, cur...)
		return append(out, items...)
	})
}

// RemoveFunc drops every element for which drop returns true.
func RemoveFunc[T any](c *Cell[[]T], drop func(T) bool) {
	c.Update(func(cur []T) []T {
		out := make([]T, 0, len(cur))
		for _, v := range cur {
			if !drop(v) {
				out = append(out, v)
			}
		}
		return out
	})
}
