package sqlinline

const QInsertBillingEvent = `--sql 08c62468-1c50-499a-a5e1-7b1aac992e04
insert into billing_events (event_id, processed_at)
values ($1::text, now())
on conflict (event_id) do nothing;
`

const QDeleteBillingEvent = `--sql baa98ca5-1013-43c2-80b0-4322e12dda15
delete from billing_events
where event_id = $1::text;
`
