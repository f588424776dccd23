package sqlinline

const QListAssetProviders = `--sql db8d693c-b558-4264-b3d9-efd0b857f926
select name, enabled, api_key, api_endpoint, priority, requests_per_minute, requests_per_day
from asset_providers
order by priority desc, name asc;
`

const QSelectAssetProvider = `--sql 6964354a-278f-4d2e-8a05-9ac73c63edeb
select name, enabled, api_key, api_endpoint, priority, requests_per_minute, requests_per_day
from asset_providers
where name = $1::text
limit 1;
`

const QUpsertAssetProvider = `--sql d3f7e169-ea27-4085-a2ad-d6a9b86aedcd
insert into asset_providers(name, enabled, api_key, api_endpoint, priority, requests_per_minute, requests_per_day, created_at, updated_at)
values ($1::text, $2::boolean, $3::text, $4::text, $5::int, $6::int, $7::int, now(), now())
on conflict (name) do update set
  enabled = excluded.enabled,
  api_key = excluded.api_key,
  api_endpoint = excluded.api_endpoint,
  priority = excluded.priority,
  requests_per_minute = excluded.requests_per_minute,
  requests_per_day = excluded.requests_per_day,
  updated_at = now();
`

const QDeleteAssetProvider = `--sql 3e829bdb-4b47-4c93-8084-30ecc162e891
delete from asset_providers
where name = $1::text;
`
