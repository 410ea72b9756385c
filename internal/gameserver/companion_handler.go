package gameserver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/dice"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/quiz"
	"github.com/cory-johannsen/mythic/internal/game/reward"
	"github.com/cory-johannsen/mythic/internal/game/species"
	"github.com/cory-johannsen/mythic/internal/game/user"
)

// Rejection reasons raised by the handler itself.
const (
	ReasonNoAnswers       = "no answers submitted"
	ReasonUnknownQuestion = "answer refers to a question outside this companion's quiz"
	ReasonBadQuantity     = "quantity must be positive"
)

// HandlerConfig holds the handler tunables.
type HandlerConfig struct {
	QuizQuestionCount int
}

// ActionResult is the outcome of PerformAction.
type ActionResult struct {
	Companion companion.Companion
	// Reaction is optional flavour text from the species' scripts.
	Reaction string
}

// MiniGameResult is the outcome of CompleteMiniGame.
type MiniGameResult struct {
	Companion companion.Companion
	Message   string
	// Tier is empty when the score earned no item.
	Tier inventory.Rarity
	// Granted and Stack are nil when no item was granted.
	Granted *inventory.Item
	Stack   *inventory.Stack
}

// QuizResult is the outcome of SubmitQuiz.
type QuizResult struct {
	Graded   quiz.Result
	MiniGame MiniGameResult
}

// CompanionHandler exposes the companion operations. Every mutation runs as
// one unit of work that locks the companion, applies decay at the current
// instant, applies the change and saves, so concurrent requests against the
// same companion serialize.
//
// callerID is the authenticated user; ownership is verified inside the unit
// of work and surfaces as companion.ErrUnauthorized.
type CompanionHandler struct {
	store    Store
	catalog  Catalog
	clock    Clock
	roller   *dice.Roller
	reactor  Reactor
	quizSize int
	logger   *zap.Logger
}

// NewCompanionHandler creates a CompanionHandler.
//
// Precondition: store, catalog, clock, roller and logger must be non-nil.
// reactor may be nil (no flavour text). A non-positive quiz size uses
// quiz.DefaultQuestionCount.
func NewCompanionHandler(store Store, catalog Catalog, clock Clock, roller *dice.Roller, reactor Reactor, cfg HandlerConfig, logger *zap.Logger) *CompanionHandler {
	if reactor == nil {
		reactor = noReactions{}
	}
	size := cfg.QuizQuestionCount
	if size <= 0 {
		size = quiz.DefaultQuestionCount
	}
	return &CompanionHandler{
		store:    store,
		catalog:  catalog,
		clock:    clock,
		roller:   roller,
		reactor:  reactor,
		quizSize: size,
		logger:   logger,
	}
}

// RegisterUser creates a user.
//
// Postcondition: returns user.ErrUsernameTaken for a duplicate username.
func (h *CompanionHandler) RegisterUser(ctx context.Context, username string) (user.User, error) {
	if err := user.ValidateUsername(username); err != nil {
		return user.User{}, companion.Reject(companion.ErrInvalidOperation, err.Error())
	}
	var u user.User
	err := h.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		u, err = tx.CreateUser(ctx, username, h.clock.Now())
		return err
	})
	if err != nil {
		return user.User{}, h.fail("register user", 0, err)
	}
	h.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// ListSpecies returns the species reference data ordered by ID.
func (h *CompanionHandler) ListSpecies(context.Context) []*species.Species {
	return h.catalog.AllSpecies()
}

// CreateCompanion creates a companion of speciesID for callerID with full
// stats and its decay clock at now.
func (h *CompanionHandler) CreateCompanion(ctx context.Context, callerID, speciesID int64, name string) (companion.Companion, error) {
	name, err := companion.NormalizeName(name)
	if err != nil {
		return companion.Companion{}, h.fail("create companion", 0, err)
	}
	if _, ok := h.catalog.Species(speciesID); !ok {
		return companion.Companion{}, h.fail("create companion", 0, notFound("species", speciesID))
	}
	var c companion.Companion
	err = h.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetUser(ctx, callerID); err != nil {
			return err
		}
		var err error
		c, err = tx.CreateCompanion(ctx, companion.New(callerID, speciesID, name, h.clock.Now()))
		return err
	})
	if err != nil {
		return companion.Companion{}, h.fail("create companion", 0, err)
	}
	h.logger.Info("companion created",
		zap.Int64("companion_id", c.ID),
		zap.Int64("owner_id", c.OwnerID),
		zap.Int64("species_id", c.SpeciesID),
	)
	return c, nil
}

// ListCompanions returns callerID's companions, each decayed to now.
func (h *CompanionHandler) ListCompanions(ctx context.Context, callerID int64) ([]companion.Companion, error) {
	var out []companion.Companion
	err := h.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		cs, err := tx.LockOwnerCompanions(ctx, callerID)
		if err != nil {
			return err
		}
		now := h.clock.Now()
		out = make([]companion.Companion, 0, len(cs))
		for _, c := range cs {
			next := companion.ApplyDecay(c, now)
			if next != c {
				if err := tx.SaveCompanion(ctx, next); err != nil {
					return err
				}
			}
			out = append(out, next)
		}
		return nil
	})
	if err != nil {
		return nil, h.fail("list companions", 0, err)
	}
	return out, nil
}

// DecayAndFetch applies decay up to now, persists it and returns the companion.
func (h *CompanionHandler) DecayAndFetch(ctx context.Context, callerID, companionID int64) (companion.Companion, error) {
	c, err := h.mutate(ctx, callerID, companionID, func(ctx context.Context, tx Tx, c companion.Companion) (companion.Companion, error) {
		return c, nil
	})
	if err != nil {
		return companion.Companion{}, h.fail("decay and fetch", companionID, err)
	}
	return c, nil
}

// PerformAction applies the named action (case-insensitive) after decay.
func (h *CompanionHandler) PerformAction(ctx context.Context, callerID, companionID int64, name string) (ActionResult, error) {
	action, err := companion.ParseAction(name)
	if err != nil {
		return ActionResult{}, h.fail("perform action", companionID, err)
	}
	c, err := h.mutate(ctx, callerID, companionID, func(ctx context.Context, tx Tx, c companion.Companion) (companion.Companion, error) {
		return companion.Apply(c, action)
	})
	if err != nil {
		return ActionResult{}, h.fail("perform action", companionID, err)
	}
	h.logger.Debug("action applied",
		zap.Int64("companion_id", companionID),
		zap.String("action", string(action)),
	)
	return ActionResult{Companion: c, Reaction: h.react(c, action)}, nil
}

// ChangeWeapon sets the companion's weapon to one its species allows.
func (h *CompanionHandler) ChangeWeapon(ctx context.Context, callerID, companionID int64, weapon string) (companion.Companion, error) {
	c, err := h.mutate(ctx, callerID, companionID, func(ctx context.Context, tx Tx, c companion.Companion) (companion.Companion, error) {
		sp, ok := h.catalog.Species(c.SpeciesID)
		if !ok {
			return c, notFound("species", c.SpeciesID)
		}
		return companion.ChangeWeapon(c, sp, weapon)
	})
	if err != nil {
		return companion.Companion{}, h.fail("change weapon", companionID, err)
	}
	return c, nil
}

// EquipItem equips the gear stack stackID on the companion, unequipping the
// previously equipped stack in the same unit of work.
func (h *CompanionHandler) EquipItem(ctx context.Context, callerID, companionID, stackID int64) (companion.Companion, error) {
	c, err := h.mutate(ctx, callerID, companionID, func(ctx context.Context, tx Tx, c companion.Companion) (companion.Companion, error) {
		st, err := tx.LockStack(ctx, stackID)
		if err != nil {
			return c, err
		}
		item, ok := h.catalog.Item(st.ItemID)
		if !ok {
			return c, notFound("item", st.ItemID)
		}
		var current *inventory.Stack
		if c.HasGear() && c.EquippedGearID != st.ID {
			cur, err := tx.LockStack(ctx, c.EquippedGearID)
			switch {
			case err == nil:
				current = &cur
			case !errors.Is(err, companion.ErrNotFound):
				return c, err
			}
		}
		holder, err := tx.GearHolder(ctx, st.ID)
		if err != nil {
			return c, err
		}

		next, change, err := companion.EquipGear(c, st, item, current, holder)
		if err != nil {
			return c, err
		}
		if change.Unequipped != nil {
			if err := tx.SaveStack(ctx, *change.Unequipped); err != nil {
				return c, err
			}
		}
		if err := tx.SaveStack(ctx, change.Equipped); err != nil {
			return c, err
		}
		return next, nil
	})
	if err != nil {
		return companion.Companion{}, h.fail("equip item", companionID, err)
	}
	return c, nil
}

// UseItem consumes one unit of the consumable stack stackID on the companion.
// The stack is deleted when it runs out.
func (h *CompanionHandler) UseItem(ctx context.Context, callerID, companionID, stackID int64) (companion.Companion, error) {
	c, err := h.mutate(ctx, callerID, companionID, func(ctx context.Context, tx Tx, c companion.Companion) (companion.Companion, error) {
		st, err := tx.LockStack(ctx, stackID)
		if err != nil {
			return c, err
		}
		item, ok := h.catalog.Item(st.ItemID)
		if !ok {
			return c, notFound("item", st.ItemID)
		}
		next, left, empty, err := companion.UseConsumable(c, st, item)
		if err != nil {
			return c, err
		}
		if empty {
			err = tx.DeleteStack(ctx, left.ID)
		} else {
			err = tx.SaveStack(ctx, left)
		}
		if err != nil {
			return c, err
		}
		return next, nil
	})
	if err != nil {
		return companion.Companion{}, h.fail("use item", companionID, err)
	}
	return c, nil
}

// AddItem grants quantity units of catalog item itemID to callerID.
func (h *CompanionHandler) AddItem(ctx context.Context, callerID, itemID int64, quantity int) (inventory.Stack, error) {
	if quantity <= 0 {
		return inventory.Stack{}, h.fail("add item", 0, companion.Reject(companion.ErrInvalidOperation, ReasonBadQuantity))
	}
	if _, ok := h.catalog.Item(itemID); !ok {
		return inventory.Stack{}, h.fail("add item", 0, notFound("item", itemID))
	}
	var st inventory.Stack
	err := h.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetUser(ctx, callerID); err != nil {
			return err
		}
		var err error
		st, err = tx.GrantItem(ctx, callerID, itemID, quantity)
		return err
	})
	if err != nil {
		return inventory.Stack{}, h.fail("add item", 0, err)
	}
	return st, nil
}

// ListInventory returns callerID's stacks ordered by ID.
func (h *CompanionHandler) ListInventory(ctx context.Context, callerID int64) ([]inventory.Stack, error) {
	var out []inventory.Stack
	err := h.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetUser(ctx, callerID); err != nil {
			return err
		}
		var err error
		out, err = tx.OwnerStacks(ctx, callerID)
		return err
	})
	if err != nil {
		return nil, h.fail("list inventory", 0, err)
	}
	return out, nil
}

// CompleteMiniGame applies decay and then the reward for score. A tiered
// score grants one random catalog item of that rarity.
func (h *CompanionHandler) CompleteMiniGame(ctx context.Context, callerID, companionID int64, score int) (MiniGameResult, error) {
	res, err := h.miniGame(ctx, callerID, companionID, func(companion.Companion) (int, error) {
		return score, nil
	})
	if err != nil {
		return MiniGameResult{}, h.fail("complete mini-game", companionID, err)
	}
	return res, nil
}

// QuizQuestions draws up to the configured number of questions from the
// companion's universe, in random order.
func (h *CompanionHandler) QuizQuestions(ctx context.Context, callerID, companionID int64) ([]quiz.Question, error) {
	var sp *species.Species
	err := h.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := h.lockOwned(ctx, tx, callerID, companionID)
		if err != nil {
			return err
		}
		var ok bool
		if sp, ok = h.catalog.Species(c.SpeciesID); !ok {
			return notFound("species", c.SpeciesID)
		}
		return nil
	})
	if err != nil {
		return nil, h.fail("quiz questions", companionID, err)
	}
	return quiz.Select(h.catalog.Questions(sp.Universe), sp.Universe, h.quizSize, h.roller), nil
}

// SubmitQuiz grades answers (question ID to chosen option) and feeds the
// percentage score into the mini-game reward.
func (h *CompanionHandler) SubmitQuiz(ctx context.Context, callerID, companionID int64, answers map[int64]string) (QuizResult, error) {
	var graded quiz.Result
	res, err := h.miniGame(ctx, callerID, companionID, func(c companion.Companion) (int, error) {
		qs, err := h.answered(c, answers)
		if err != nil {
			return 0, err
		}
		graded = quiz.Score(qs, answers)
		return graded.Score, nil
	})
	if err != nil {
		return QuizResult{}, h.fail("submit quiz", companionID, err)
	}
	return QuizResult{Graded: graded, MiniGame: res}, nil
}

func (h *CompanionHandler) answered(c companion.Companion, answers map[int64]string) ([]quiz.Question, error) {
	if len(answers) == 0 {
		return nil, companion.Reject(companion.ErrInvalidOperation, ReasonNoAnswers)
	}
	sp, ok := h.catalog.Species(c.SpeciesID)
	if !ok {
		return nil, notFound("species", c.SpeciesID)
	}
	bank := make(map[int64]quiz.Question)
	for _, q := range h.catalog.Questions(sp.Universe) {
		bank[q.ID] = q
	}
	qs := make([]quiz.Question, 0, len(answers))
	for id := range answers {
		q, ok := bank[id]
		if !ok {
			return nil, companion.Reject(companion.ErrInvalidOperation, ReasonUnknownQuestion)
		}
		qs = append(qs, q)
	}
	return qs, nil
}

func (h *CompanionHandler) miniGame(ctx context.Context, callerID, companionID int64, score func(companion.Companion) (int, error)) (MiniGameResult, error) {
	var res MiniGameResult
	c, err := h.mutate(ctx, callerID, companionID, func(ctx context.Context, tx Tx, c companion.Companion) (companion.Companion, error) {
		s, err := score(c)
		if err != nil {
			return c, err
		}
		out := reward.Resolve(s)
		next := companion.ApplyReward(c, out.SkillDelta, out.EnergyDelta)

		res = MiniGameResult{Message: out.Message, Tier: out.Tier}
		if !out.HasTier() {
			return next, nil
		}
		item, ok := reward.Choose(h.roller, h.catalog.ItemsByRarity(out.Tier))
		if !ok {
			res.Message = out.WithoutItems().Message
			return next, nil
		}
		st, err := tx.GrantItem(ctx, next.OwnerID, item.ID, 1)
		if err != nil {
			return c, err
		}
		res.Granted, res.Stack = item, &st
		return next, nil
	})
	if err != nil {
		return MiniGameResult{}, err
	}
	res.Companion = c
	return res, nil
}

// mutate runs the read-decay-mutate-write sequence for one companion as a
// unit of work. fn receives the decayed companion; its result is saved.
func (h *CompanionHandler) mutate(ctx context.Context, callerID, companionID int64, fn func(ctx context.Context, tx Tx, c companion.Companion) (companion.Companion, error)) (companion.Companion, error) {
	var out companion.Companion
	err := h.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := h.lockOwned(ctx, tx, callerID, companionID)
		if err != nil {
			return err
		}
		next, err := fn(ctx, tx, c)
		if err != nil {
			return err
		}
		if err := tx.SaveCompanion(ctx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (h *CompanionHandler) lockOwned(ctx context.Context, tx Tx, callerID, companionID int64) (companion.Companion, error) {
	c, err := tx.LockCompanion(ctx, companionID)
	if err != nil {
		return c, err
	}
	if c.OwnerID != callerID {
		return c, companion.Unauthorized()
	}
	return companion.ApplyDecay(c, h.clock.Now()), nil
}

func (h *CompanionHandler) react(c companion.Companion, action companion.Action) string {
	sp, ok := h.catalog.Species(c.SpeciesID)
	if !ok {
		return ""
	}
	return h.reactor.Reaction(sp.ScriptKey(), string(action), map[string]any{
		"name":      c.Name,
		"health":    c.Health,
		"hunger":    c.Hunger,
		"energy":    c.Energy,
		"happiness": c.Happiness,
		"hygiene":   c.Hygiene,
		"skill":     c.Skill,
		"sick":      c.Sick,
		"weapon":    c.CurrentWeapon,
	})
}

// fail logs err at a level matching its kind and returns it unchanged.
func (h *CompanionHandler) fail(op string, companionID int64, err error) error {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if companionID != 0 {
		fields = append(fields, zap.Int64("companion_id", companionID))
	}
	if isClientError(err) {
		h.logger.Debug("request rejected", fields...)
	} else {
		h.logger.Error("request failed", fields...)
	}
	return err
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, companion.ErrNotFound)
}

func isClientError(err error) bool {
	var rej *companion.RejectedError
	return errors.As(err, &rej) ||
		errors.Is(err, companion.ErrNotFound) ||
		errors.Is(err, user.ErrUsernameTaken)
}
