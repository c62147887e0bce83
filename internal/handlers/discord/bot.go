package discord

import (
	"errors"
	"fmt"
	"log"

	"github.com/KirkDiggler/sessionscribe/internal/dispatch"
	"github.com/KirkDiggler/sessionscribe/internal/services/tracker"
	"github.com/bwmarrin/discordgo"
)

// membersPageSize is the Discord REST page limit for guild member listing
const membersPageSize = 1000

// Bot represents the Discord bot instance
type Bot struct {
	session    *discordgo.Session
	commands   map[string]CommandHandler
	commandIDs map[string]string // Maps command name to command ID
	tracker    tracker.Service
	dispatcher *dispatch.Dispatcher
	config     *Config
}

// Config holds the configuration for the bot
type Config struct {
	// Discord bot token
	Token string

	// Application ID for the bot
	ApplicationID string

	// Optional guild ID for development (server-specific commands)
	GuildID string

	// Tracker service for the read commands
	Tracker tracker.Service

	// Dispatcher the gateway events are queued on
	Dispatcher *dispatch.Dispatcher
}

// New creates a new Discord bot
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Token == "" {
		return nil, errors.New("token cannot be empty")
	}

	if cfg.Tracker == nil {
		return nil, errors.New("tracker service cannot be nil")
	}

	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}

	// Create a new Discord session
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Member join/remove and message events require these intents
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages

	bot := &Bot{
		session:    session,
		commands:   make(map[string]CommandHandler),
		commandIDs: make(map[string]string),
		tracker:    cfg.Tracker,
		dispatcher: cfg.Dispatcher,
		config:     cfg,
	}

	// Register the gateway handlers
	session.AddHandler(bot.handleReady)
	session.AddHandler(bot.handleGuildMemberAdd)
	session.AddHandler(bot.handleGuildMemberRemove)
	session.AddHandler(bot.handleMessageCreate)
	session.AddHandler(bot.handleInteraction)

	return bot, nil
}

// Start initializes the Discord connection and registers commands
func (b *Bot) Start() error {
	// Open the websocket connection to Discord
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register the moderator commands
	statsCmd := NewStatsCommand(b.tracker)
	if err := b.RegisterCommand(statsCmd); err != nil {
		return fmt.Errorf("failed to register stats command: %w", err)
	}

	activeCmd := NewActiveCommand(b.tracker)
	if err := b.RegisterCommand(activeCmd); err != nil {
		return fmt.Errorf("failed to register active command: %w", err)
	}

	log.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts down the Discord connection
func (b *Bot) Stop() error {
	// Remove all commands
	appID := b.config.ApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	guildID := ""
	if b.config.GuildID != "" {
		guildID = b.config.GuildID
	}

	for cmdName, cmdID := range b.commandIDs {
		if err := b.session.ApplicationCommandDelete(appID, guildID, cmdID); err != nil {
			log.Printf("Failed to delete command %s (ID: %s): %v", cmdName, cmdID, err)
		}
	}

	return b.session.Close()
}

// RegisterCommand registers a command with Discord
func (b *Bot) RegisterCommand(cmd CommandHandler) error {
	// Register the command with Discord
	appID := b.config.ApplicationID
	if appID == "" {
		// Fall back to session user ID if application ID is not provided
		appID = b.session.State.User.ID
	}

	// If guild ID is provided, register command for that specific guild
	// Otherwise, register it globally
	guildID := ""
	if b.config.GuildID != "" {
		guildID = b.config.GuildID
		log.Printf("Registering command %s for guild %s", cmd.GetName(), guildID)
	} else {
		log.Printf("Registering command %s globally", cmd.GetName())
	}

	createdCmd, err := b.session.ApplicationCommandCreate(appID, guildID, cmd.GetCommand())
	if err != nil {
		return fmt.Errorf("failed to create command %s: %w", cmd.GetName(), err)
	}

	// Store the command handler and its ID
	b.commands[cmd.GetName()] = cmd
	b.commandIDs[cmd.GetName()] = createdCmd.ID
	log.Printf("Registered command: %s with ID: %s", cmd.GetName(), createdCmd.ID)

	return nil
}

// handleReady sets the presence and reconciles sessions for members already
// present in every guild
func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := s.UpdateGameStatus(0, "SessionScribe"); err != nil {
		log.Printf("Failed to set presence: %v", err)
	}

	log.Printf("SessionScribe is online as %s (ID: %s)", r.User.Username, r.User.ID)

	// Bootstrap runs off the gateway goroutine; the member listing is a
	// paged REST call per guild
	go b.bootstrap(s, r.Guilds)
}

// bootstrap enqueues a reconcile event for every non-bot member currently in
// the given guilds
func (b *Bot) bootstrap(s *discordgo.Session, guilds []*discordgo.Guild) {
	for _, guild := range guilds {
		after := ""
		for {
			members, err := s.GuildMembers(guild.ID, after, membersPageSize)
			if err != nil {
				log.Printf("[SessionScribe][INIT] failed to list members for guild %s: %v", guild.ID, err)
				break
			}

			for _, member := range members {
				if member.User == nil || member.User.Bot {
					continue
				}
				b.dispatcher.Enqueue(dispatch.Event{
					Type:    dispatch.EventBootstrapMember,
					GuildID: guild.ID,
					UserID:  member.User.ID,
				})
			}

			if len(members) < membersPageSize {
				break
			}
			after = members[len(members)-1].User.ID
		}
	}

	log.Println("Bootstrapped sessions for all current members.")
}

// handleGuildMemberAdd queues a join event for non-bot members
func (b *Bot) handleGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	b.dispatcher.Enqueue(dispatch.Event{
		Type:    dispatch.EventMemberJoin,
		GuildID: m.GuildID,
		UserID:  m.User.ID,
	})
}

// handleGuildMemberRemove queues a leave event for non-bot members
func (b *Bot) handleGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil || m.User.Bot {
		return
	}

	b.dispatcher.Enqueue(dispatch.Event{
		Type:    dispatch.EventMemberLeave,
		GuildID: m.GuildID,
		UserID:  m.User.ID,
	})
}

// handleMessageCreate queues a message event for non-bot authors in guild
// channels; DMs have no guild and are ignored
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	b.dispatcher.Enqueue(dispatch.Event{
		Type:      dispatch.EventMessage,
		GuildID:   m.GuildID,
		UserID:    m.Author.ID,
		ChannelID: m.ChannelID,
	})
}

// handleInteraction handles Discord interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		// Handle slash commands
		if h, ok := b.commands[i.ApplicationCommandData().Name]; ok {
			if err := h.Handle(s, i); err != nil {
				log.Printf("Error handling command %s: %v", i.ApplicationCommandData().Name, err)
			}
		}
	}
}
