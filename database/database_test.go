package database_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firasghr/GoFingerprintEngine/database"
	"github.com/firasghr/GoFingerprintEngine/fingerprint"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

const cleanPreimage = "771,4865-4866-4867,0-23-65281,29-23-24,0"

// deriveJA3 turns a preimage-shaped hello into a JA3 fingerprint value.
func deriveJA3(t *testing.T) fingerprint.JA3 {
	t.Helper()
	ja3, err := fingerprint.DeriveJA3(&wire.TLSClientHello{
		LegacyVersion:   771,
		CipherSuites:    []uint16{4865, 4866, 4867},
		Extensions:      []wire.Extension{{Type: 0}, {Type: 23}, {Type: 65281}},
		SupportedGroups: []uint16{29, 23, 24},
		ECPointFormats:  []uint8{0},
	})
	require.NoError(t, err)
	require.Equal(t, cleanPreimage, ja3.Preimage)
	return ja3
}

func clientA() database.ProfileMatch {
	return database.ProfileMatch{
		ProfileLabel:       "ClientA",
		BrowserFamily:      database.FamilyChrome,
		OSFamily:           database.OSWindows,
		DeviceClass:        database.DeviceDesktop,
		ContributingLayers: []fingerprint.Kind{fingerprint.KindJA3},
		ConfidenceCeiling:  1.0,
	}
}

func TestInsertAndLookupExact(t *testing.T) {
	db := database.New()
	require.NoError(t, db.Insert("ja3:"+cleanPreimage, clientA()))

	matches, ok := db.LookupExact("ja3:" + cleanPreimage)
	require.True(t, ok)
	require.Len(t, matches, 1)
	assert.Equal(t, "ClientA", matches[0].ProfileLabel)

	_, ok = db.LookupExact("ja3:unknown")
	assert.False(t, ok, "a miss is a false result, not an error")
}

func TestInsert_InvalidKeys(t *testing.T) {
	db := database.New()
	for _, key := range []string{
		"",
		"no-prefix",
		"bogus:" + cleanPreimage, // unknown kind
		"ja3:",                   // empty canonical
		"ja3:\x01bad",            // non-printable
		"ja3:ümlaut",        // non-ASCII
	} {
		err := db.Insert(key, clientA())
		assert.ErrorIs(t, err, database.ErrInvalidKey, "key %q", key)
	}
}

func TestInsert_IdempotentOnSameLabel(t *testing.T) {
	db := database.New()
	key := "ja3:" + cleanPreimage
	require.NoError(t, db.Insert(key, clientA()))
	require.NoError(t, db.Insert(key, clientA()))

	matches, ok := db.LookupExact(key)
	require.True(t, ok)
	assert.Len(t, matches, 1, "duplicate (key, label) must not grow the row")

	other := clientA()
	other.ProfileLabel = "ClientB"
	require.NoError(t, db.Insert(key, other))
	matches, _ = db.LookupExact(key)
	assert.Len(t, matches, 2, "distinct labels share one fingerprint row")
}

func TestMatchFuzzy_ExactHit(t *testing.T) {
	db := database.New()
	require.NoError(t, db.Insert("ja3:"+cleanPreimage, clientA()))

	match := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	require.NotNil(t, match)
	assert.Equal(t, "ClientA", match.Profile.ProfileLabel)
	assert.Equal(t, 1.0, match.Confidence)
	assert.False(t, match.GreaseTolerant)
}

func TestMatchFuzzy_GreaseDrift(t *testing.T) {
	db := database.New()
	// The stored key carries raw GREASE values, as a feed of unnormalised
	// preimages would: 2570 = 0x0a0a, 6682 = 0x1a1a.
	greasedKey := "ja3:771,2570-4865-4866-4867,0-6682-23-65281,29-23-24,0"
	require.NoError(t, db.Insert(greasedKey, clientA()))

	match := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	require.NotNil(t, match)
	assert.Equal(t, "ClientA", match.Profile.ProfileLabel)
	assert.Equal(t, database.GreaseTolerantScore, match.Confidence)
	assert.True(t, match.GreaseTolerant)
}

func TestMatchFuzzy_BelowThreshold(t *testing.T) {
	db := database.New()
	// Ciphers and extensions each share only a fifth of their union with
	// the query: mean similarity (1 + 0.2 + 0.2 + 1 + 1)/5 = 0.68 < 0.80.
	farKey := "ja3:771,4865-49195-49199,0-13-43,29-23-24,0"
	require.NoError(t, db.Insert(farKey, clientA()))

	match := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	assert.Nil(t, match, "no candidate at or above the floor means a miss")
}

func TestMatchFuzzy_NearMatchAboveThreshold(t *testing.T) {
	db := database.New()
	// Only the extension field drifts: two extensions shared out of a
	// four-element union, Jaccard 0.5, mean (1+1+0.5+1+1)/5 = 0.9.
	nearKey := "ja3:771,4865-4866-4867,0-23-13,29-23-24,0"
	require.NoError(t, db.Insert(nearKey, clientA()))

	match := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	require.NotNil(t, match)
	assert.True(t, match.GreaseTolerant)
	assert.InDelta(t, 0.9, match.Confidence, 1e-9)
}

func TestMatchFuzzy_RanksByScore(t *testing.T) {
	db := database.New()
	near := clientA()
	near.ProfileLabel = "Near"
	far := clientA()
	far.ProfileLabel = "Far"

	// Near: extensions Jaccard 0.5 → similarity 0.9.
	require.NoError(t, db.Insert("ja3:771,4865-4866-4867,0-23-13,29-23-24,0", near))
	// Far: extensions fully disjoint → similarity 0.8, exactly at the floor.
	require.NoError(t, db.Insert("ja3:771,4865-4866-4867,13-43-51,29-23-24,0", far))

	match := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	require.NotNil(t, match)
	assert.Equal(t, "Near", match.Profile.ProfileLabel,
		"the higher-scoring candidate must win regardless of map order")
}

func TestMatchFuzzy_Deterministic(t *testing.T) {
	db := database.New()
	// Two equally-scored candidates; the tie must break the same way on
	// every call despite the map's randomised iteration order.
	a := clientA()
	a.ProfileLabel = "A"
	b := clientA()
	b.ProfileLabel = "B"
	require.NoError(t, db.Insert("ja3:771,4865-4866-4867,13-43-51,29-23-24,0", a))
	require.NoError(t, db.Insert("ja3:771,4865-4866-4867,17-35-51,29-23-24,0", b))

	first := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	require.NotNil(t, first)
	for i := 0; i < 20; i++ {
		again := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
		require.NotNil(t, again)
		assert.Equal(t, first.Profile.ProfileLabel, again.Profile.ProfileLabel)
	}
}

func TestMatchFuzzy_ConfidenceCeiling(t *testing.T) {
	db := database.New()
	learned := clientA()
	learned.ProfileLabel = "learned"
	learned.ConfidenceCeiling = 0.75
	require.NoError(t, db.Insert("ja3:"+cleanPreimage, learned))

	match := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	require.NotNil(t, match)
	assert.Equal(t, 0.75, match.Confidence, "exact hit confidence capped by the ceiling")
}

func TestMatchFuzzy_KindIsolation(t *testing.T) {
	db := database.New()
	require.NoError(t, db.Insert("ja3s:"+cleanPreimage, clientA()))

	match := db.MatchFuzzy(fingerprint.KindJA3, deriveJA3(t), 0)
	assert.Nil(t, match, "keys of another kind must never match")
}

func TestSimilarity_JA4SegmentWise(t *testing.T) {
	a := "t13d0306h2_55b375c5d22e_c25ae681cfef"
	b := "t13d0306h2_55b375c5d22e_000000000000"
	got := database.Similarity(fingerprint.KindJA4, a, b)
	assert.InDelta(t, 2.0/3.0, got, 1e-9, "two of three sections equal")
	assert.Equal(t, 1.0, database.Similarity(fingerprint.KindJA4, a, a))
}

func TestExportImport_RoundTrip(t *testing.T) {
	db := database.New()
	require.NoError(t, db.Insert("ja3:"+cleanPreimage, clientA()))
	other := clientA()
	other.ProfileLabel = "ClientB"
	require.NoError(t, db.Insert("ja4:t13d0306h2_55b375c5d22e_c25ae681cfef", other))

	var buf bytes.Buffer
	require.NoError(t, db.Export(&buf))

	restored := database.New()
	require.NoError(t, restored.Import(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, db.Len(), restored.Len())

	matches, ok := restored.LookupExact("ja3:" + cleanPreimage)
	require.True(t, ok)
	assert.Equal(t, "ClientA", matches[0].ProfileLabel)
}

func TestExport_Deterministic(t *testing.T) {
	db := database.New()
	require.NoError(t, db.Insert("ja3:"+cleanPreimage, clientA()))
	require.NoError(t, db.Insert("ja4:t13d0306h2_55b375c5d22e_c25ae681cfef", clientA()))

	var a, b bytes.Buffer
	require.NoError(t, db.Export(&a))
	require.NoError(t, db.Export(&b))
	assert.Equal(t, a.String(), b.String(), "exports must be byte-identical")
}

func TestImport_RejectsUnknownFields(t *testing.T) {
	db := database.New()
	payload := `[{"key":"ja3:` + cleanPreimage + `","matches":[{"profile_label":"X","confidence_ceiling":1,"surprise":true}]}]`
	assert.Error(t, db.Import(bytes.NewReader([]byte(payload))))
}

func TestImport_RejectsEmptyRows(t *testing.T) {
	db := database.New()
	payload := `[{"key":"ja3:` + cleanPreimage + `","matches":[]}]`
	assert.Error(t, db.Import(bytes.NewReader([]byte(payload))))
}
