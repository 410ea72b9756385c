package gameserver

import (
	"math"
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/quiz"
	"github.com/cory-johannsen/mythic/internal/game/species"
	"github.com/cory-johannsen/mythic/internal/game/user"
)

// Request field accessors. Missing or malformed fields are InvalidArgument.

func intField(req *structpb.Struct, key string) (int64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "missing field %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > 1<<53 {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be an integer", key)
	}
	return int64(n.NumberValue), nil
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "missing field %q", key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "field %q must be a string", key)
	}
	return s.StringValue, nil
}

// answersField reads an object of question ID (as a decimal string key) to
// chosen option.
func answersField(req *structpb.Struct, key string) (map[int64]string, error) {
	obj := req.GetFields()[key].GetStructValue()
	if obj == nil {
		return nil, status.Errorf(codes.InvalidArgument, "field %q must be an object", key)
	}
	out := make(map[int64]string, len(obj.GetFields()))
	for k, v := range obj.GetFields() {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "answer key %q is not a question id", k)
		}
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "answer for question %d must be a string", id)
		}
		out[id] = s.StringValue
	}
	return out, nil
}

// Response encoders. structpb.NewStruct accepts only []any and map[string]any
// for composites.

func encode(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return s, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func userValue(u user.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"created_at": timestamp(u.CreatedAt),
	}
}

func companionValue(c companion.Companion) map[string]any {
	return map[string]any{
		"id":               c.ID,
		"owner_id":         c.OwnerID,
		"species_id":       c.SpeciesID,
		"name":             c.Name,
		"health":           c.Health,
		"hunger":           c.Hunger,
		"energy":           c.Energy,
		"happiness":        c.Happiness,
		"hygiene":          c.Hygiene,
		"skill":            c.Skill,
		"sick":             c.Sick,
		"current_weapon":   c.CurrentWeapon,
		"equipped_gear_id": c.EquippedGearID,
		"last_updated":     timestamp(c.LastUpdated),
		"created_at":       timestamp(c.CreatedAt),
	}
}

func companionsValue(cs []companion.Companion) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, companionValue(c))
	}
	return out
}

func stackValue(st inventory.Stack) map[string]any {
	return map[string]any{
		"id":       st.ID,
		"owner_id": st.OwnerID,
		"item_id":  st.ItemID,
		"quantity": st.Quantity,
		"equipped": st.Equipped,
	}
}

func itemValue(it *inventory.Item) map[string]any {
	m := map[string]any{
		"id":          it.ID,
		"name":        it.Name,
		"description": it.Description,
		"type":        string(it.Type),
		"rarity":      string(it.Rarity),
	}
	for key, v := range map[string]*int{
		"health_bonus":    it.HealthBonus,
		"hunger_bonus":    it.HungerBonus,
		"energy_bonus":    it.EnergyBonus,
		"happiness_bonus": it.HappinessBonus,
	} {
		if v != nil {
			m[key] = *v
		}
	}
	return m
}

func speciesValue(sp *species.Species) map[string]any {
	weapons := make([]any, 0, len(sp.AllowedWeapons))
	for _, w := range sp.AllowedWeapons {
		weapons = append(weapons, w)
	}
	assets := make(map[string]any, len(sp.Assets))
	for k, v := range sp.Assets {
		assets[k] = v
	}
	return map[string]any{
		"id":              sp.ID,
		"name":            sp.Name,
		"universe":        string(sp.Universe),
		"allowed_weapons": weapons,
		"assets":          assets,
	}
}

// questionValue omits the correct answer.
func questionValue(q quiz.Question) map[string]any {
	opts := make([]any, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, o)
	}
	return map[string]any{
		"id":       q.ID,
		"text":     q.Text,
		"options":  opts,
		"universe": string(q.Universe),
	}
}

func miniGameValue(res MiniGameResult) map[string]any {
	m := map[string]any{
		"companion": companionValue(res.Companion),
		"message":   res.Message,
		"tier":      string(res.Tier),
	}
	if res.Granted != nil {
		m["granted"] = itemValue(res.Granted)
	}
	if res.Stack != nil {
		m["stack"] = stackValue(*res.Stack)
	}
	return m
}
