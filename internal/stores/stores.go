package stores

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

// Set bundles the adapters of one side.
type Set struct {
	Side      models.Side
	Profiles  *ProfileStore
	Playlists *PlaylistStore
}

// NewSet builds a side from explicit volumes and paths.
func NewSet(side models.Side, profileVol Volume, profilePath string, playlistVol Volume, playlistDir string, backup Snapshotter, logger *log.Logger) *Set {
	return &Set{
		Side:      side,
		Profiles:  NewProfileStore(side, profileVol, profilePath, backup, logger),
		Playlists: NewPlaylistStore(side, playlistVol, playlistDir, backup, logger),
	}
}

// NewLocalSet builds the PC side: PlayerData.dat in configDir and playlists in
// gameDir/Playlists.
func NewLocalSet(configDir, gameDir string, backup Snapshotter, logger *log.Logger) *Set {
	return NewSet(models.Local,
		NewOSVolume(configDir), shared.PlayerDataFile,
		NewOSVolume(gameDir), shared.PlaylistsDir,
		backup, logger)
}

// NewRemoteSet builds the headset side over an open transport.
func NewRemoteSet(t device.Transport, playerDataPath, playlistsDir string, backup Snapshotter, logger *log.Logger) *Set {
	vol := NewRemoteVolume(t)
	return NewSet(models.Remote, vol, playerDataPath, vol, playlistsDir, backup, logger)
}
