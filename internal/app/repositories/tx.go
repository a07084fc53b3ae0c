package repositories

import (
	"sort"

	"github.com/campushub/miniapp/internal/app/models"
)

// Tx is the view of the working set handed to a transaction function.
// Pointers it returns are live and must not escape the transaction; copy
// the value before returning it to a caller.
type Tx struct {
	data     *state
	dirty    map[string]bool
	readOnly bool
}

// Touch marks collections as changed after editing records in place
func (tx *Tx) Touch(names ...string) {
	if tx.readOnly {
		panic("repositories: write inside a read transaction")
	}
	for _, name := range names {
		tx.dirty[name] = true
	}
}

// --- Events ---

// Events returns every event in insertion order
func (tx *Tx) Events() []*models.Event {
	return tx.data.events
}

// Event looks up an event by id
func (tx *Tx) Event(id string) (*models.Event, bool) {
	for _, event := range tx.data.events {
		if event.ID == id {
			return event, true
		}
	}
	return nil, false
}

// InsertEvent adds an event with an empty roster and transcript
func (tx *Tx) InsertEvent(event *models.Event) {
	tx.Touch(CollectionEvents, CollectionParticipants, CollectionMessages)
	event.Participants = 0
	tx.data.events = append(tx.data.events, event)
	tx.data.participants[event.ID] = []models.Participant{}
	tx.data.messages[event.ID] = []models.ChatMessage{}
}

// DeleteEvent removes an event together with its roster, transcript and
// restrictions. Photos pointing at the event are kept.
func (tx *Tx) DeleteEvent(id string) bool {
	for i, event := range tx.data.events {
		if event.ID != id {
			continue
		}
		tx.Touch(CollectionEvents, CollectionParticipants, CollectionMessages, CollectionRestrictions)
		tx.data.events = append(tx.data.events[:i], tx.data.events[i+1:]...)
		delete(tx.data.participants, id)
		delete(tx.data.messages, id)
		delete(tx.data.restrictions, id)
		return true
	}
	return false
}

// --- Rosters ---

// Roster returns a copy of an event's participants
func (tx *Tx) Roster(eventID string) []models.Participant {
	return append([]models.Participant{}, tx.data.participants[eventID]...)
}

// Participant finds one roster entry
func (tx *Tx) Participant(eventID string, userID models.UserID) (models.Participant, bool) {
	for _, p := range tx.data.participants[eventID] {
		if p.UserID == userID {
			return p, true
		}
	}
	return models.Participant{}, false
}

// SetRoster replaces an event's roster and rewrites its participant count
func (tx *Tx) SetRoster(eventID string, roster []models.Participant) {
	tx.Touch(CollectionParticipants)
	tx.data.participants[eventID] = roster
	if event, ok := tx.Event(eventID); ok {
		tx.Touch(CollectionEvents)
		event.Participants = len(roster)
	}
}

// ParticipantTotal counts roster entries over all events
func (tx *Tx) ParticipantTotal() int {
	total := 0
	for _, roster := range tx.data.participants {
		total += len(roster)
	}
	return total
}

// --- Transcripts ---

// Transcript returns a copy of an event's chat messages in display order
func (tx *Tx) Transcript(eventID string) []models.ChatMessage {
	return append([]models.ChatMessage{}, tx.data.messages[eventID]...)
}

// AppendMessage adds a message to an event transcript
func (tx *Tx) AppendMessage(eventID string, msg models.ChatMessage) {
	tx.Touch(CollectionMessages)
	tx.data.messages[eventID] = append(tx.data.messages[eventID], msg)
}

// DeleteMessage removes one message from an event transcript
func (tx *Tx) DeleteMessage(eventID, messageID string) bool {
	transcript := tx.data.messages[eventID]
	for i, msg := range transcript {
		if msg.ID == messageID {
			tx.Touch(CollectionMessages)
			tx.data.messages[eventID] = append(transcript[:i], transcript[i+1:]...)
			return true
		}
	}
	return false
}

// MessageTotal counts messages over all event transcripts
func (tx *Tx) MessageTotal() int {
	total := 0
	for _, transcript := range tx.data.messages {
		total += len(transcript)
	}
	return total
}

// GlobalMessages returns a copy of the sitewide chat
func (tx *Tx) GlobalMessages() []models.ChatMessage {
	return append([]models.ChatMessage{}, tx.data.globalMessages...)
}

// AppendGlobalMessage adds a message to the sitewide chat
func (tx *Tx) AppendGlobalMessage(msg models.ChatMessage) {
	tx.Touch(CollectionGlobalMessages)
	tx.data.globalMessages = append(tx.data.globalMessages, msg)
}

// --- Restrictions ---

// Restrictions returns a copy of an event's restrictions ordered by user id
func (tx *Tx) Restrictions(eventID string) []models.Restriction {
	list := append([]models.Restriction{}, tx.data.restrictions[eventID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list
}

// Restriction returns the restriction of one user, if any
func (tx *Tx) Restriction(eventID string, userID models.UserID) (models.Restriction, bool) {
	for _, r := range tx.data.restrictions[eventID] {
		if r.UserID == userID {
			return r, true
		}
	}
	return models.Restriction{}, false
}

// PutRestriction stores a restriction, dropping it once it limits nothing
func (tx *Tx) PutRestriction(eventID string, restriction models.Restriction) {
	tx.Touch(CollectionRestrictions)

	list := tx.data.restrictions[eventID]
	kept := list[:0]
	for _, r := range list {
		if r.UserID != restriction.UserID {
			kept = append(kept, r)
		}
	}
	if !restriction.IsEmpty() {
		kept = append(kept, restriction)
	}

	if len(kept) == 0 {
		delete(tx.data.restrictions, eventID)
		return
	}
	tx.data.restrictions[eventID] = kept
}

// RestrictedUserTotal counts restriction entries over all events
func (tx *Tx) RestrictedUserTotal() int {
	total := 0
	for _, list := range tx.data.restrictions {
		total += len(list)
	}
	return total
}

// --- Photos ---

// Photos returns every photo in upload order
func (tx *Tx) Photos() []*models.Photo {
	return tx.data.photos
}

// Photo looks up a photo by id
func (tx *Tx) Photo(id string) (*models.Photo, bool) {
	for _, photo := range tx.data.photos {
		if photo.ID == id {
			return photo, true
		}
	}
	return nil, false
}

// InsertPhoto adds a photo record
func (tx *Tx) InsertPhoto(photo *models.Photo) {
	tx.Touch(CollectionPhotos)
	tx.data.photos = append(tx.data.photos, photo)
}

// DeletePhoto removes a photo record and returns it
func (tx *Tx) DeletePhoto(id string) (*models.Photo, bool) {
	for i, photo := range tx.data.photos {
		if photo.ID == id {
			tx.Touch(CollectionPhotos)
			tx.data.photos = append(tx.data.photos[:i], tx.data.photos[i+1:]...)
			return photo, true
		}
	}
	return nil, false
}

// --- Videos ---

// Videos returns every video in upload order
func (tx *Tx) Videos() []*models.Video {
	return tx.data.videos
}

// Video looks up a video by id
func (tx *Tx) Video(id string) (*models.Video, bool) {
	for _, video := range tx.data.videos {
		if video.ID == id {
			return video, true
		}
	}
	return nil, false
}

// InsertVideo adds a video record
func (tx *Tx) InsertVideo(video *models.Video) {
	tx.Touch(CollectionVideos)
	tx.data.videos = append(tx.data.videos, video)
}

// DeleteVideo removes a video record and returns it
func (tx *Tx) DeleteVideo(id string) (*models.Video, bool) {
	for i, video := range tx.data.videos {
		if video.ID == id {
			tx.Touch(CollectionVideos)
			tx.data.videos = append(tx.data.videos[:i], tx.data.videos[i+1:]...)
			return video, true
		}
	}
	return nil, false
}

// --- Schedules ---

// Schedules returns every schedule, system and user-bound
func (tx *Tx) Schedules() []*models.Schedule {
	return tx.data.schedules
}

// Schedule looks up a schedule by id
func (tx *Tx) Schedule(id string) (*models.Schedule, bool) {
	for _, schedule := range tx.data.schedules {
		if schedule.ID == id {
			return schedule, true
		}
	}
	return nil, false
}

// UserSchedule returns the schedule bound to a user, if any
func (tx *Tx) UserSchedule(userID models.UserID) (*models.Schedule, bool) {
	for _, schedule := range tx.data.schedules {
		if schedule.UserID == userID && !schedule.IsSystem() {
			return schedule, true
		}
	}
	return nil, false
}

// PutSchedule inserts a schedule or replaces the one with the same id
func (tx *Tx) PutSchedule(schedule *models.Schedule) {
	tx.Touch(CollectionSchedules)
	for i, existing := range tx.data.schedules {
		if existing.ID == schedule.ID {
			tx.data.schedules[i] = schedule
			return
		}
	}
	tx.data.schedules = append(tx.data.schedules, schedule)
}

// DeleteSchedule removes a schedule by id
func (tx *Tx) DeleteSchedule(id string) bool {
	for i, schedule := range tx.data.schedules {
		if schedule.ID == id {
			tx.Touch(CollectionSchedules)
			tx.data.schedules = append(tx.data.schedules[:i], tx.data.schedules[i+1:]...)
			return true
		}
	}
	return false
}

// DeleteUserSchedules removes every schedule bound to userID
func (tx *Tx) DeleteUserSchedules(userID models.UserID) int {
	kept := tx.data.schedules[:0]
	removed := 0
	for _, schedule := range tx.data.schedules {
		if !schedule.IsSystem() && schedule.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, schedule)
	}
	if removed > 0 {
		tx.Touch(CollectionSchedules)
	}
	tx.data.schedules = kept
	return removed
}

// --- Settings ---

// Settings returns a copy of the site settings
func (tx *Tx) Settings() models.Settings {
	settings := make(models.Settings, len(tx.data.settings))
	for k, v := range tx.data.settings {
		settings[k] = v
	}
	return settings
}

// MergeSettings overwrites the given keys; an empty value deletes the key
func (tx *Tx) MergeSettings(update models.Settings) {
	tx.Touch(CollectionSettings)
	for k, v := range update {
		if v == "" {
			delete(tx.data.settings, k)
			continue
		}
		tx.data.settings[k] = v
	}
}

// --- Contacts (fallback copy of the relational table) ---

// Contacts returns a copy of the fallback contact list
func (tx *Tx) Contacts() []models.Contact {
	return append([]models.Contact{}, tx.data.contacts...)
}

// PutContact inserts or replaces a contact by id
func (tx *Tx) PutContact(contact models.Contact) {
	tx.Touch(CollectionContacts)
	for i, existing := range tx.data.contacts {
		if existing.ID == contact.ID {
			tx.data.contacts[i] = contact
			return
		}
	}
	tx.data.contacts = append(tx.data.contacts, contact)
}

// SetContactActive flips the active flag of a fallback contact
func (tx *Tx) SetContactActive(id int64, active bool) bool {
	for i := range tx.data.contacts {
		if tx.data.contacts[i].ID == id {
			tx.Touch(CollectionContacts)
			tx.data.contacts[i].Active = active
			return true
		}
	}
	return false
}

// --- Wipe ---

// Clear empties collections and returns how many records each one lost
func (tx *Tx) Clear(names ...string) map[string]int {
	removed := make(map[string]int, len(names))
	for _, name := range names {
		tx.Touch(name)
		switch name {
		case CollectionEvents:
			removed[name] = len(tx.data.events)
			tx.data.events = nil
		case CollectionParticipants:
			removed[name] = tx.ParticipantTotal()
			tx.data.participants = make(map[string][]models.Participant)
			for _, event := range tx.data.events {
				event.Participants = 0
			}
			if len(tx.data.events) > 0 {
				tx.Touch(CollectionEvents)
			}
		case CollectionMessages:
			removed[name] = tx.MessageTotal()
			tx.data.messages = make(map[string][]models.ChatMessage)
		case CollectionGlobalMessages:
			removed[name] = len(tx.data.globalMessages)
			tx.data.globalMessages = nil
		case CollectionRestrictions:
			removed[name] = tx.RestrictedUserTotal()
			tx.data.restrictions = make(map[string][]models.Restriction)
		case CollectionPhotos:
			removed[name] = len(tx.data.photos)
			tx.data.photos = nil
		case CollectionVideos:
			removed[name] = len(tx.data.videos)
			tx.data.videos = nil
		case CollectionSchedules:
			removed[name] = len(tx.data.schedules)
			tx.data.schedules = nil
		case CollectionSettings:
			removed[name] = len(tx.data.settings)
			tx.data.settings = make(models.Settings)
		case CollectionContacts:
			removed[name] = len(tx.data.contacts)
			tx.data.contacts = nil
		}
	}
	return removed
}
