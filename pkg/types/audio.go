package types

// TtsPriority orders TTS requests; lower values are more urgent.
type TtsPriority int8

const (
	TtsPriorityHigh   TtsPriority = 0 // alerts, low battery
	TtsPriorityMiddle TtsPriority = 1 // system prompts
	TtsPriorityLow    TtsPriority = 2 // chat, background
)

var ttsPriorityNames = enumTable[TtsPriority]{
	TtsPriorityHigh:   "HIGH",
	TtsPriorityMiddle: "MIDDLE",
	TtsPriorityLow:    "LOW",
}

func (p TtsPriority) String() string { return ttsPriorityNames.name(p) }

func (p TtsPriority) Valid() bool {
	_, ok := ttsPriorityNames[p]
	return ok
}

// ParseTtsPriority parses "HIGH", "MIDDLE" or "LOW".
func ParseTtsPriority(s string) (TtsPriority, error) {
	return ttsPriorityNames.parse("tts priority", s)
}

// TtsMode controls how a request is merged with the queue of its priority.
type TtsMode int8

const (
	// TtsModeClearTop drops the playing and queued items of the same priority.
	TtsModeClearTop TtsMode = 0
	// TtsModeAdd appends to the queue of the same priority.
	TtsModeAdd TtsMode = 1
	// TtsModeClearBuffer drops queued items but lets the current one finish.
	TtsModeClearBuffer TtsMode = 2
)

var ttsModeNames = enumTable[TtsMode]{
	TtsModeClearTop:    "CLEARTOP",
	TtsModeAdd:         "ADD",
	TtsModeClearBuffer: "CLEARBUFFER",
}

func (m TtsMode) String() string { return ttsModeNames.name(m) }

func (m TtsMode) Valid() bool {
	_, ok := ttsModeNames[m]
	return ok
}

// ParseTtsMode parses "CLEARTOP", "ADD" or "CLEARBUFFER".
func ParseTtsMode(s string) (TtsMode, error) { return ttsModeNames.parse("tts mode", s) }

// TtsCommand is a single text-to-speech request.
type TtsCommand struct {
	ID       string      `json:"id"`
	Content  string      `json:"content"`
	Priority TtsPriority `json:"priority"`
	Mode     TtsMode     `json:"mode"`
}

// TtsType is the speech model backing TTS.
type TtsType int32

const (
	TtsTypeNone   TtsType = 0
	TtsTypeDoubao TtsType = 1
	TtsTypeGoogle TtsType = 2
)

var ttsTypeNames = enumTable[TtsType]{
	TtsTypeNone:   "NONE",
	TtsTypeDoubao: "DOUBAO",
	TtsTypeGoogle: "GOOGLE",
}

func (t TtsType) String() string { return ttsTypeNames.name(t) }

func (t TtsType) Valid() bool {
	_, ok := ttsTypeNames[t]
	return ok
}

// ParseTtsType parses "NONE", "DOUBAO" or "GOOGLE".
func ParseTtsType(s string) (TtsType, error) { return ttsTypeNames.parse("tts type", s) }

type CustomBotInfo struct {
	Name     string `json:"name" yaml:"name"`
	Workflow string `json:"workflow" yaml:"workflow"`
	Token    string `json:"token" yaml:"token"`
}

// CustomBotMap is keyed by bot id.
type CustomBotMap map[string]CustomBotInfo

// SetSpeechConfig is the writable part of the speech configuration.
type SetSpeechConfig struct {
	SpeakerID          string       `json:"speaker_id" yaml:"speaker_id"`
	Region             string       `json:"region" yaml:"region"`
	BotID              string       `json:"bot_id" yaml:"bot_id"`
	IsFrontDoa         bool         `json:"is_front_doa" yaml:"is_front_doa"`
	IsFullduplexEnable bool         `json:"is_fullduplex_enable" yaml:"is_fullduplex_enable"`
	IsEnable           bool         `json:"is_enable" yaml:"is_enable"`
	IsDoaEnable        bool         `json:"is_doa_enable" yaml:"is_doa_enable"`
	SpeakerSpeed       float64      `json:"speaker_speed" yaml:"speaker_speed"` // [1, 2]
	WakeupName         string       `json:"wakeup_name" yaml:"wakeup_name"`
	CustomBot          CustomBotMap `json:"custom_bot" yaml:"custom_bot"`
}

type SpeakerConfigSelected struct {
	Region    string `json:"region" yaml:"region"`
	SpeakerID string `json:"speaker_id" yaml:"speaker_id"`
}

// SpeakerConfig lists the available speakers per region as [id, name] pairs.
type SpeakerConfig struct {
	Data         map[string][][2]string `json:"data" yaml:"data"`
	Selected     SpeakerConfigSelected  `json:"selected" yaml:"selected"`
	SpeakerSpeed float64                `json:"speaker_speed" yaml:"speaker_speed"`
}

type BotInfo struct {
	Name     string `json:"name" yaml:"name"`
	Workflow string `json:"workflow" yaml:"workflow"`
}

type BotConfigSelected struct {
	BotID string `json:"bot_id" yaml:"bot_id"`
}

type BotConfig struct {
	Data       map[string]BotInfo       `json:"data" yaml:"data"`
	CustomData map[string]CustomBotInfo `json:"custom_data" yaml:"custom_data"`
	Selected   BotConfigSelected        `json:"selected" yaml:"selected"`
}

// WakeupConfig maps wake words to their pinyin.
type WakeupConfig struct {
	Name string            `json:"name" yaml:"name"`
	Data map[string]string `json:"data" yaml:"data"`
}

type DialogConfig struct {
	IsFrontDoa         bool `json:"is_front_doa" yaml:"is_front_doa"`
	IsFullduplexEnable bool `json:"is_fullduplex_enable" yaml:"is_fullduplex_enable"`
	IsEnable           bool `json:"is_enable" yaml:"is_enable"`
	IsDoaEnable        bool `json:"is_doa_enable" yaml:"is_doa_enable"`
}

// GetSpeechConfig is the full speech configuration as reported by the robot.
type GetSpeechConfig struct {
	SpeakerConfig SpeakerConfig `json:"speaker_config" yaml:"speaker_config"`
	BotConfig     BotConfig     `json:"bot_config" yaml:"bot_config"`
	WakeupConfig  WakeupConfig  `json:"wakeup_config" yaml:"wakeup_config"`
	DialogConfig  DialogConfig  `json:"dialog_config" yaml:"dialog_config"`
	TtsType       TtsType       `json:"tts_type" yaml:"tts_type"`
}
