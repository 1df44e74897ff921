// Package http exposes the attendance store over a JSON API.
//
// The router exposes the following endpoints:
//   - GET /students, POST /students, DELETE /students: query the directory with
//     curso, periodo and search parameters, insert one student (409 when the RA
//     exists), or delete a batch given {"ras": [...]}.
//   - POST /students/import: upsert a roster file. The body is a JSON array or
//     CSV selected by Content-Type; columns are matched by alias.
//   - PATCH /students/{ra}, DELETE /students/{ra}: partial update (blank fields
//     are ignored, unknown RAs answer {"updated": false}) and single delete.
//   - GET /courses, GET /periods?course=, GET /classes: distinct values in
//     display order.
//   - GET /rosters?date=&type=&class=CURSO|PERIODO: per-class student lists for
//     printing sign-in sheets.
//   - GET /sessions, POST /sessions: history (period and search filters, newest
//     first) and attendance upsert (201 when created, 200 when overwritten).
//   - GET /sessions/check?date=&course=&period=&type=: whether a session already
//     owns the key.
//   - GET /sessions/{id}, DELETE /sessions/{id}, PUT /sessions/{id}/members,
//     POST /sessions/{id}/toggle-type, GET /sessions/{id}/export: single
//     session operations; export answers text/plain as an attachment.
//   - DELETE /store: wipe every student and session.
//   - GET /metrics: Prometheus exposition when a metrics handler is configured.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
