package notify

import "github.com/sirupsen/logrus"

// SoundFile maps a sound identifier to its asset file name.
func SoundFile(name string) string {
	switch name {
	case "sound1":
		return "sound1.mp3"
	case "sound2":
		return "sound2.mp3"
	default:
		return "sound.mp3"
	}
}

// LogNotifier writes notifications to the application log. The browser UI
// is the real delivery channel; on the server side firing is observable
// only through the log.
type LogNotifier struct{}

func (LogNotifier) Notify(title, body string) {
	logrus.WithField("title", title).Info(body)
}

// LogSoundPlayer logs which sound asset would be played.
type LogSoundPlayer struct{}

func (LogSoundPlayer) Play(sound string) {
	logrus.WithField("file", SoundFile(sound)).Debug("playing alert sound")
}
