package models

// Visibility rules shared by the catalog, discover and request components.
// These are the only access-control predicates in the core and every handler
// path goes through them, independent of any storage-layer policy.

// CanViewRequest reports whether userID may read a request and its thread.
// Only the two parties may.
func CanViewRequest(userID string, r *TradeRequest) bool {
	return r != nil && r.IsParty(userID)
}

// Discoverable reports whether an item may be surfaced to someone other than
// its owner: both the item and the owner's profile must be public.
func Discoverable(item *ClosetItem, owner *User) bool {
	if item == nil || owner == nil {
		return false
	}
	return item.IsPublic && owner.IsPublic && !item.Deleted && !owner.Deleted
}

// CanViewItem reports whether userID may read an item: the owner always can,
// anyone else only via the discoverability rule.
func CanViewItem(userID string, item *ClosetItem, owner *User) bool {
	if item == nil || item.Deleted {
		return false
	}
	if item.OwnerID == userID {
		return true
	}
	return Discoverable(item, owner)
}

// Requestable reports whether an item may be the target of a request of the
// given type. The item must be discoverable to the requester and carry the
// matching availability flag.
func Requestable(t RequestType, item *ClosetItem, owner *User) bool {
	if !Discoverable(item, owner) {
		return false
	}
	switch t {
	case RequestTypeTrade:
		return item.AvailableToTrade
	case RequestTypeBorrow:
		return item.AvailableToBorrow
	}
	return false
}
