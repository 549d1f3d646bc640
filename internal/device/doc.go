// Package device talks to a headset through the adb command-line tool.
//
// [Client.Devices] enumerates attached devices, [Client.Open] turns a ready [Device] into a
// [Session] satisfying [Transport]. Every remote read and write of a sync goes through one
// session, which is closed exactly once when the sync ends.
//
// Commands are issued through a [Runner] so tests can substitute canned adb output.
package device
