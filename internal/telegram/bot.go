package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"cosmodiet-go/internal/auth"
	"cosmodiet-go/internal/diet"
	"cosmodiet-go/internal/models"
	"cosmodiet-go/internal/store"
)

const divider = "━━━━━━━━━━━━━━━━━━━━━"

// Bot drives the dialogue: account linking, step-by-step ration
// calculation and history browsing.
type Bot struct {
	client      *Client
	sender      Sender
	store       *store.Store
	codes       *auth.CodeIssuer
	sessions    *sessionManager
	pollTimeout int
	now         func() time.Time
}

func NewBot(client *Client, st *store.Store, codes *auth.CodeIssuer, pollTimeoutSec int, sessionIdle time.Duration) *Bot {
	return &Bot{
		client:      client,
		sender:      client,
		store:       st,
		codes:       codes,
		sessions:    newSessionManager(sessionIdle),
		pollTimeout: pollTimeoutSec,
		now:         time.Now,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("telegram poll error: %v", err)
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message != nil {
				b.HandleMessage(ctx, u.Message.Chat.ID, u.Message.Text)
			}
		}
	}
}

func mainKeyboard() *ReplyKeyboard {
	return &ReplyKeyboard{
		Keyboard: [][]KeyboardButton{
			{{Text: "🍽 Рассчитать рацион"}},
			{{Text: "📊 Моя биометрия"}, {Text: "🥗 Мой рацион"}},
			{{Text: "📅 История рационов"}},
			{{Text: "🔗 Привязать аккаунт"}},
		},
		ResizeKeyboard: true,
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, keyboard *ReplyKeyboard) {
	if err := b.sender.SendMessage(ctx, chatID, text, keyboard); err != nil {
		log.Printf("telegram send error (chat %d): %v", chatID, err)
	}
}

func anyOf(text string, options ...string) bool {
	for _, o := range options {
		if text == o {
			return true
		}
	}
	return false
}

// HandleMessage advances the chat's state machine by one incoming
// message. The session lock is held for the whole turn.
func (b *Bot) HandleMessage(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)

	s := b.sessions.acquire(chatID)
	defer s.release()

	if text == "/start" {
		s.reset()
		b.send(ctx, chatID,
			"🚀 Добро пожаловать в CosmoDiet Bot!\n\n"+
				"Я помогу рассчитать космический рацион питания.\n"+
				"Выберите действие ниже 👇",
			mainKeyboard())
		return
	}

	// Commands and buttons interrupt whatever step was in flight.
	switch {
	case anyOf(text, "🔗 Привязать аккаунт", "Привязать аккаунт", "/link"):
		s.reset()
		s.step = StepLinkCode
		b.send(ctx, chatID, "🔑 Введите код привязки из раздела «Telegram» в личном кабинете:", nil)
		return
	case anyOf(text, "🍽 Рассчитать рацион", "Рассчитать рацион", "/calc"):
		s.reset()
		s.step = StepHeight
		b.send(ctx, chatID, "📏 Шаг 1/5 — Введите ваш рост (см):\n\nНапример: 175", nil)
		return
	case anyOf(text, "📊 Моя биометрия", "Моя биометрия", "/bio"):
		s.reset()
		b.showBio(ctx, chatID)
		return
	case anyOf(text, "🥗 Мой рацион", "Мой рацион", "/diet"):
		s.reset()
		b.showLastDiet(ctx, chatID)
		return
	case anyOf(text, "📅 История рационов", "История рационов", "/history"):
		s.reset()
		b.showHistory(ctx, chatID, s)
		return
	}

	switch s.step {
	case StepLinkCode:
		b.stepLinkCode(ctx, chatID, s, text)
	case StepHeight:
		b.stepHeight(ctx, chatID, s, text)
	case StepWeight:
		b.stepWeight(ctx, chatID, s, text)
	case StepAge:
		b.stepAge(ctx, chatID, s, text)
	case StepActivity:
		b.stepActivity(ctx, chatID, s, text)
	case StepGravity:
		b.stepGravity(ctx, chatID, s, text)
	case StepDietIndex:
		b.stepDietIndex(ctx, chatID, s, text)
	}
}

// ─── Account linking ───

func (b *Bot) stepLinkCode(ctx context.Context, chatID int64, s *session, text string) {
	code := strings.ToUpper(text)
	userID, ok := b.codes.Redeem(code)
	if !ok {
		s.reset()
		b.send(ctx, chatID, "❌ Код не найден или истёк. Запросите новый код на сайте.", mainKeyboard())
		return
	}

	err := b.store.Apply(func(doc *models.Document) error {
		u := doc.UserByID(userID)
		if u == nil {
			return fmt.Errorf("user %s not found", userID)
		}
		u.TelegramID = chatID
		return nil
	})
	s.reset()
	if err != nil {
		log.Printf("link chat %d: %v", chatID, err)
		b.send(ctx, chatID, "❌ Не удалось привязать аккаунт. Попробуйте позже.", mainKeyboard())
		return
	}
	b.send(ctx, chatID, "✅ Аккаунт успешно привязан!", mainKeyboard())
}

// ─── Step-by-step ration calculation ───

func (b *Bot) stepHeight(ctx context.Context, chatID int64, s *session, text string) {
	h, err := strconv.ParseFloat(text, 64)
	if err != nil || !diet.ValidHeight(h) {
		b.send(ctx, chatID, "❌ Введите корректный рост (50-250 см):", nil)
		return
	}
	s.height = h
	s.step = StepWeight
	b.send(ctx, chatID, "⚖️ Шаг 2/5 — Введите ваш вес (кг):\n\nНапример: 70", nil)
}

func (b *Bot) stepWeight(ctx context.Context, chatID int64, s *session, text string) {
	w, err := strconv.ParseFloat(text, 64)
	if err != nil || !diet.ValidWeight(w) {
		b.send(ctx, chatID, "❌ Введите корректный вес (20-300 кг):", nil)
		return
	}
	s.weight = w
	s.step = StepAge
	b.send(ctx, chatID, "🎂 Шаг 3/5 — Введите ваш возраст:\n\nНапример: 30", nil)
}

func (b *Bot) stepAge(ctx context.Context, chatID int64, s *session, text string) {
	a, err := strconv.Atoi(text)
	if err != nil || !diet.ValidAge(a) {
		b.send(ctx, chatID, "❌ Введите корректный возраст (10-120):", nil)
		return
	}
	s.age = a
	s.step = StepActivity
	b.send(ctx, chatID,
		"🏃 Шаг 4/5 — Выберите уровень активности:\n\n"+
			"1️⃣ — Низкая (сидячая работа)\n"+
			"2️⃣ — Средняя (лёгкие тренировки)\n"+
			"3️⃣ — Высокая (интенсивные тренировки)\n\n"+
			"Введите цифру (1, 2 или 3):", nil)
}

func (b *Bot) stepActivity(ctx context.Context, chatID int64, s *session, text string) {
	if _, ok := diet.ActivityLevels[text]; !ok {
		b.send(ctx, chatID, "❌ Введите 1, 2 или 3:", nil)
		return
	}
	s.activity = text
	s.step = StepGravity
	b.send(ctx, chatID,
		"🌍 Шаг 5/5 — Выберите условия гравитации:\n\n"+
			"1️⃣ — Микрогравитация (МКС)\n"+
			"2️⃣ — Луна (0.16g)\n"+
			"3️⃣ — Марс (0.38g)\n\n"+
			"Введите цифру (1, 2 или 3):", nil)
}

func (b *Bot) stepGravity(ctx context.Context, chatID int64, s *session, text string) {
	gravity, ok := diet.GravityLevels[text]
	if !ok {
		b.send(ctx, chatID, "❌ Введите 1, 2 или 3:", nil)
		return
	}
	activity := diet.ActivityLevels[s.activity]

	entry := diet.BuildEntry(s.height, s.weight, s.age, activity, gravity, b.now())
	b.send(ctx, chatID, formatDietResult(entry), mainKeyboard())

	// Only linked chats get the entry persisted; for anonymous chats
	// the reply itself is the whole result.
	err := b.store.Apply(func(doc *models.Document) error {
		if u := doc.UserByTelegramID(chatID); u != nil {
			u.DietHistory = append(u.DietHistory, entry)
		}
		return nil
	})
	if err != nil {
		log.Printf("save diet for chat %d: %v", chatID, err)
	}
	s.reset()
}

func formatDietResult(e models.DietEntry) string {
	var sb strings.Builder
	sb.WriteString("✅ Ваш космический рацион рассчитан!\n")
	sb.WriteString(divider + "\n")
	fmt.Fprintf(&sb, "📅 Дата: %s\n", e.Date)
	fmt.Fprintf(&sb, "📏 Рост: %g см | ⚖️ Вес: %g кг | 🎂 Возраст: %d\n", e.Height, e.Weight, e.Age)
	fmt.Fprintf(&sb, "🏃 Активность: %s\n", e.Activity)
	fmt.Fprintf(&sb, "🌍 Гравитация: %s\n", e.Gravity)
	sb.WriteString(divider + "\n")
	fmt.Fprintf(&sb, "🔥 Калории: %d ккал/сутки\n", e.Calories)
	fmt.Fprintf(&sb, "🥩 Белки: %d г\n", e.Protein)
	fmt.Fprintf(&sb, "🧈 Жиры: %d г\n", e.Fat)
	fmt.Fprintf(&sb, "🍞 Углеводы: %d г\n", e.Carbs)
	sb.WriteString(divider + "\n")
	sb.WriteString("🍽 Рекомендуемые продукты:\n" + foodList(e.RecommendedFoods))
	return sb.String()
}

func foodList(foods []string) string {
	if len(foods) == 0 {
		return "Нет рекомендаций"
	}
	lines := make([]string, len(foods))
	for i, f := range foods {
		lines[i] = "  • " + f
	}
	return strings.Join(lines, "\n")
}

// ─── Linked-account views ───

func (b *Bot) linkedUser(chatID int64) (*models.User, error) {
	doc, err := b.store.Read()
	if err != nil {
		return nil, err
	}
	return doc.UserByTelegramID(chatID), nil
}

const notLinkedMsg = "⚠️ Аккаунт не привязан. Нажмите «🔗 Привязать аккаунт»."

func (b *Bot) showBio(ctx context.Context, chatID int64) {
	u, err := b.linkedUser(chatID)
	if err != nil {
		log.Printf("read store: %v", err)
		return
	}
	if u == nil {
		b.send(ctx, chatID, notLinkedMsg, nil)
		return
	}
	if len(u.BioHistory) == 0 {
		b.send(ctx, chatID, "📭 Нет сохраненной биометрии.", nil)
		return
	}
	last := u.BioHistory[len(u.BioHistory)-1]
	msg := fmt.Sprintf(
		"📊 Биометрия (%v):\n%s\n📏 Рост: %v см\n⚖️ Вес: %v кг\n🎂 Возраст: %v\n💓 Пульс: %v\n🏃 Активность: %v\n😰 Стресс: %v\n🕐 Длительность: %v дн.\n🌍 Гравитация: %v",
		last["date"], divider, last["height"], last["weight"], last["age"],
		last["pulse"], last["activity"], last["stressLevel"],
		last["missionDuration"], last["gravity"])
	b.send(ctx, chatID, msg, nil)
}

const noDietsMsg = "📭 Нет сохраненных рационов.\nНажмите «🍽 Рассчитать рацион» чтобы создать первый!"

func (b *Bot) showLastDiet(ctx context.Context, chatID int64) {
	u, err := b.linkedUser(chatID)
	if err != nil {
		log.Printf("read store: %v", err)
		return
	}
	if u == nil {
		b.send(ctx, chatID, notLinkedMsg, nil)
		return
	}
	if len(u.DietHistory) == 0 {
		b.send(ctx, chatID, noDietsMsg, nil)
		return
	}
	last := u.DietHistory[len(u.DietHistory)-1]
	msg := fmt.Sprintf(
		"🥗 Последний рацион (%s):\n%s\n🔥 Калории: %d ккал\n🥩 Белки: %d г\n🧈 Жиры: %d г\n🍞 Углеводы: %d г\n%s\n🍽 Рекомендуемые продукты:\n%s",
		last.Date, divider, last.Calories, last.Protein, last.Fat, last.Carbs,
		divider, foodList(last.RecommendedFoods))
	b.send(ctx, chatID, msg, nil)
}

func (b *Bot) showHistory(ctx context.Context, chatID int64, s *session) {
	u, err := b.linkedUser(chatID)
	if err != nil {
		log.Printf("read store: %v", err)
		return
	}
	if u == nil {
		b.send(ctx, chatID, notLinkedMsg, nil)
		return
	}
	if len(u.DietHistory) == 0 {
		b.send(ctx, chatID, noDietsMsg, nil)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 История ваших рационов (%d шт.):\n%s\n", len(u.DietHistory), divider)
	for i, d := range u.DietHistory {
		fmt.Fprintf(&sb, "%d. 📋 %s — %d ккал\n", i+1, d.Date, d.Calories)
	}
	fmt.Fprintf(&sb, "\n%s\nОтправьте номер рациона (1-%d) чтобы посмотреть подробности:", divider, len(u.DietHistory))

	s.step = StepDietIndex
	b.send(ctx, chatID, sb.String(), nil)
}

func (b *Bot) stepDietIndex(ctx context.Context, chatID int64, s *session, text string) {
	u, err := b.linkedUser(chatID)
	if err != nil {
		log.Printf("read store: %v", err)
		return
	}
	var diets []models.DietEntry
	if u != nil {
		diets = u.DietHistory
	}

	idx, err := strconv.Atoi(text)
	if err != nil || idx < 1 || idx > len(diets) {
		b.send(ctx, chatID, fmt.Sprintf("❌ Введите число от 1 до %d:", len(diets)), nil)
		return
	}

	d := diets[idx-1]
	msg := fmt.Sprintf(
		"📋 Рацион #%d (%s):\n%s\n📏 Рост: %g см | ⚖️ Вес: %g кг\n🎂 Возраст: %d\n🏃 Активность: %s\n🌍 Гравитация: %s\n%s\n🔥 Калории: %d ккал/сутки\n🥩 Белки: %d г\n🧈 Жиры: %d г\n🍞 Углеводы: %d г\n%s\n🍽 Рекомендуемые продукты:\n%s",
		idx, d.Date, divider, d.Height, d.Weight, d.Age, d.Activity, d.Gravity,
		divider, d.Calories, d.Protein, d.Fat, d.Carbs, divider, foodList(d.RecommendedFoods))
	b.send(ctx, chatID, msg, mainKeyboard())
	s.reset()
}
